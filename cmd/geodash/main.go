package main

// ============================================================================
// GEODASH CLI — dataset analysis from the terminal
// ============================================================================

func main() {
	Execute()
}
