package main

import "contao-l10n-sync/internal/cli"

func main() {
	cli.Execute()
}
