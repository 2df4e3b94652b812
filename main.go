package main

import "campus-events/cmd"

func main() {
	cmd.Execute()
}
