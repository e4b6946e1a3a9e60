package main

import (
	"git.handmade.network/hmn/forumsync/src/forumsync"
)

func main() {
	forumsync.Execute()
}
