// Command textmark marks occurrences of search terms in HTML documents.
// Usage: textmark highlight [flags] TERM...
package main

import "github.com/raysh454/textmark/internal/cli"

func main() {
	cli.Execute()
}
