package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/JJET88/dit205-midterm-fullstack/shared/config"
	"github.com/JJET88/dit205-midterm-fullstack/shared/utils"
)

func main() {
	size := flag.Int("size", 48, "key size in bytes")
	flag.Parse()

	if *size < config.MinJwtKeyLength {
		log.Fatalf("key size must be at least %d bytes", config.MinJwtKeyLength)
	}

	key, err := utils.GenerateKey(*size)
	if err != nil {
		log.Fatalf("Failed to generate signing key: %v", err)
	}

	fmt.Println("=================================================")
	fmt.Println("  Session Signing Key (HS256)")
	fmt.Println("=================================================")
	fmt.Println()
	fmt.Println("Add this to your environment or .env file:")
	fmt.Printf("%sJWT_KEY=\"%s\"\n", config.EnvPrefix, key)
	fmt.Println()
	fmt.Println("IMPORTANT:")
	fmt.Println("- Rotating this key signs out every user")
	fmt.Println("- Never commit this key to version control!")
	fmt.Println("=================================================")
}
