// Command leaperd runs the indexing and discovery core standalone: it
// crawls the XDG application and icon search trees into the embedded
// store and, on request, streams the resulting app/icon feed to stdout
// as newline-delimited JSON for a UI process to consume.
package main

func main() {
	Execute()
}
