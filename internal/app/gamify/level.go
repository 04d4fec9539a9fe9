package gamify

// Levels are a coarse progression tier over cumulative distinct books:
// one level per ten books, starting at level 1.

// LevelForBooks returns the level for a distinct-book count.
func LevelForBooks(totalBooks int) int {
	return totalBooks/10 + 1
}

// LevelUpBonus returns the one-time point bonus for reaching a level.
func LevelUpBonus(level int) int64 {
	return int64(level) * 50
}

// BooksToNextLevel returns how many more distinct books reach the next
// level.
func BooksToNextLevel(totalBooks int) int {
	return 10 - totalBooks%10
}
