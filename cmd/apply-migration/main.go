package main

import (
	"fmt"
	"log"
	"os"

	"vitalsync-import/internal/config"
	"vitalsync-import/internal/database"
)

// 应用内置 schema，或传入一个 SQL 文件路径执行自定义迁移
func main() {
	cfg := config.Load()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()

	sqlContent := database.Schema
	if len(os.Args) > 1 {
		raw, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to read migration file: %v", err)
		}
		sqlContent = string(raw)
	}

	if _, err := db.Exec(sqlContent); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	fmt.Println("Migration applied successfully")
}
