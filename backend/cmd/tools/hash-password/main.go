package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/JJET88/dit205-midterm-fullstack/backend/internal/storage/pg"
	"github.com/JJET88/dit205-midterm-fullstack/shared/config"
	"github.com/JJET88/dit205-midterm-fullstack/shared/password"
)

func main() {
	cost := flag.Int("cost", password.DefaultCost, "bcrypt cost")
	email := flag.String("email", "", "if set, insert a user with this email instead of printing the hash")
	name := flag.String("name", "", "display name of the inserted user")
	configFolder := flag.String("config_folder", "backend/config", "path to folder with configs, used with -email")
	flag.Parse()

	plain, err := readPassword()
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	if plain == "" {
		log.Fatal("Password is empty")
	}

	hash, err := password.New(*cost).Hash(plain)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	if *email == "" {
		fmt.Println(hash)
		return
	}

	cfg := config.MustLoad(*configFolder)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	storage, err := pg.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer storage.Cleanup()

	id, err := storage.SaveUser(ctx, *name, *email, hash)
	if err != nil {
		log.Fatalf("Failed to save user: %v", err)
	}
	fmt.Printf("created user %d (%s)\n", id, *email)
}

// readPassword prompts without echo on a terminal, otherwise reads one line from stdin.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return string(b), err
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
