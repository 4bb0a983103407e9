package main

import (
	"flag"
	"fmt"

	"github.com/fryholic/cctv-coordinator/internal/secrets"
)

func main() {
	password := flag.String("password", "password", "plaintext password to hash")
	flag.Parse()

	hash, err := secrets.HashPassword(*password)
	if err != nil {
		panic(err)
	}
	fmt.Println(hash)
}
