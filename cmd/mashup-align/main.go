package main

import "github.com/oshokin/mashup-tool/cmd/mashup-align/cmd"

func main() {
	cmd.Execute()
}
