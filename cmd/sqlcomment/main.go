// Command sqlcomment prepends comments to SQL statements, either printing
// them or running them through an annotated database handle.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
