package main

import "alumnisync-backend/cmd/alumniscan/cmd"

func main() {
	cmd.Execute()
}
