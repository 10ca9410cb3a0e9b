package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"go-product-admin/internal/config"
	"go-product-admin/internal/middleware"
	"go-product-admin/pkg/jwt"
)

// issue-token mints a bearer token for local development and scripts.
func main() {
	userID := flag.String("user", "admin", "user id stored in the token")
	name := flag.String("name", "Administrator", "display name stored in the token")
	privs := flag.String("privileges", strings.Join(allPrivileges, ","), "comma separated privileges")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()

	var privileges []string
	for _, p := range strings.Split(*privs, ",") {
		if p = strings.TrimSpace(p); p != "" {
			privileges = append(privileges, p)
		}
	}

	token, err := jwt.GenerateToken([]byte(cfg.JWTSecret), *userID, *name, privileges, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}

var allPrivileges = []string{
	middleware.PrivilegeProductCreate,
	middleware.PrivilegeProductUpdate,
	middleware.PrivilegeProductDelete,
	middleware.PrivilegeCategoryCreate,
}
