// Package ascii names the terminal colors trees are highlighted with.
package ascii

const (
	Reset = "\033[0m"
	Green = "\033[1;32m"
	Gray  = "\033[90m"

	// 256-color palette
	Purple = "\033[1;38;5;99m"
	Pink   = "\033[1;38;5;127m"
)

// Theme assigns a color to each part of a highlighted tree
type Theme struct {
	Node        string
	Reference   string
	Literal     string
	Placeholder string
}

var DefaultTheme = Theme{
	Node:        Purple,
	Reference:   Pink,
	Literal:     Green,
	Placeholder: Gray,
}
