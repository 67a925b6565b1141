// Command orc fans a single prompt out to one or more AI assistant CLIs,
// running them as child processes under a lock-gated scheduler so
// independent subtasks run in parallel while dependent ones wait their
// turn.
package main

func main() {
	Execute()
}
