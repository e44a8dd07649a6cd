// Command modelgate serves a CRUD API derived from model documents.
package main

func main() {
	Execute()
}
