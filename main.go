package main

import "github.com/clems4ever/wikitext-serializer/cmd"

func main() {
	cmd.Execute()
}
