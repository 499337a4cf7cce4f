package core

// Display is the character-LCD capability
type Display interface {
	// MoveCursor positions the cursor; row and col are zero-based
	MoveCursor(row, col uint8)

	// WriteText writes a string at the cursor and advances it
	WriteText(s string)

	// WriteInteger writes an unsigned decimal value at the cursor
	WriteInteger(v uint32)

	// WriteChar writes a single character at the cursor
	WriteChar(c byte)
}
