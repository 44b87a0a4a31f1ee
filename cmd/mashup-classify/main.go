package main

import "github.com/oshokin/mashup-tool/cmd/mashup-classify/cmd"

func main() {
	cmd.Execute()
}
