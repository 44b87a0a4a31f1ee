package main

import "github.com/oshokin/mashup-tool/cmd/mashup-concat/cmd"

func main() {
	cmd.Execute()
}
