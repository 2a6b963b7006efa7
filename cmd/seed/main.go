// Package main implements a standalone seed script that populates an
// ExamPrepShare deployment with realistic test data. Accounts, resources, and
// ratings are created through the HTTP API so every write goes through the
// same validation and aggregate recomputation as real traffic.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// --------------------------------------------------------------------------
// HTTP helpers
// --------------------------------------------------------------------------

func httpPost(url, token string, body any) (map[string]any, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]any
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return result, nil
}

// --------------------------------------------------------------------------
// Seed data definitions
// --------------------------------------------------------------------------

type userDef struct {
	name  string
	email string
	token string // populated after registration
	id    string
}

type resourceDef struct {
	title    string
	category string
	subject  string
	fileName string
	id       string // populated after creation
	uploader int    // index into users
}

var users = []userDef{
	{name: "Asha Verma", email: "asha@seed.example.com"},
	{name: "Rohan Mehta", email: "rohan@seed.example.com"},
	{name: "Priya Nair", email: "priya@seed.example.com"},
	{name: "Dev Kulkarni", email: "dev@seed.example.com"},
	{name: "Sara Iyer", email: "sara@seed.example.com"},
}

var resources = []resourceDef{
	{title: "Calculus II Midterm Notes", category: "notes", subject: "Mathematics", fileName: "calc2-notes.pdf", uploader: 0},
	{title: "Organic Chemistry Past Paper 2025", category: "past-paper", subject: "Chemistry", fileName: "ochem-2025.pdf", uploader: 1},
	{title: "Data Structures Assignment 3", category: "assignment", subject: "Computer Science", fileName: "ds-assignment-3.pdf", uploader: 2},
	{title: "Linear Algebra Done Right Summary", category: "book", subject: "Mathematics", fileName: "ladr-summary.pdf", uploader: 3},
	{title: "Physics 101 Syllabus", category: "syllabus", subject: "Physics", fileName: "phys101-syllabus.pdf", uploader: 4},
	{title: "Microeconomics Revision Sheet", category: "notes", subject: "Economics", fileName: "micro-revision.pdf", uploader: 0},
}

// --------------------------------------------------------------------------
// Seeding
// --------------------------------------------------------------------------

func main() {
	apiURL := getEnv("EXAMSHARE_API_URL", "http://localhost:8080")
	password := getEnv("SEED_PASSWORD", "Seed1ngPass")

	log.Printf("seeding %s", apiURL)
	start := time.Now()

	if err := registerUsers(apiURL, password); err != nil {
		log.Fatalf("register users: %v", err)
	}
	if err := createResources(apiURL); err != nil {
		log.Fatalf("create resources: %v", err)
	}
	if err := submitRatings(apiURL); err != nil {
		log.Fatalf("submit ratings: %v", err)
	}

	log.Printf("seed complete in %s: %d users, %d resources", time.Since(start), len(users), len(resources))
}

func registerUsers(apiURL, password string) error {
	for i := range users {
		u := &users[i]
		resp, err := httpPost(apiURL+"/api/v1/auth/register", "", map[string]any{
			"email":    u.email,
			"password": password,
			"name":     u.name,
		})
		if err != nil {
			// Likely a rerun against an already-seeded database; log in instead.
			resp, err = httpPost(apiURL+"/api/v1/auth/login", "", map[string]any{
				"email":    u.email,
				"password": password,
			})
			if err != nil {
				return fmt.Errorf("register or login %s: %w", u.email, err)
			}
		}

		data := resp["data"].(map[string]any)
		u.id = data["user"].(map[string]any)["id"].(string)
		u.token = data["tokens"].(map[string]any)["access_token"].(string)
		log.Printf("user ready: %s", u.email)
	}
	return nil
}

func createResources(apiURL string) error {
	for i := range resources {
		r := &resources[i]
		uploader := users[r.uploader]

		resp, err := httpPost(apiURL+"/api/v1/resources", uploader.token, map[string]any{
			"title":     r.title,
			"category":  r.category,
			"subject":   r.subject,
			"file_url":  "https://files.example.com/seed/" + r.fileName,
			"file_name": r.fileName,
			"file_size": 10240 + rand.Intn(500000),
			"file_type": "application/pdf",
		})
		if err != nil {
			return fmt.Errorf("create resource %q: %w", r.title, err)
		}

		r.id = resp["data"].(map[string]any)["id"].(string)
		log.Printf("resource created: %s", r.title)
	}
	return nil
}

func submitRatings(apiURL string) error {
	reviews := []string{
		"very helpful before the exam",
		"clear and well organized",
		"a few typos but solid overall",
		"saved me hours of revision",
		"covers exactly what the lecturer asked",
	}

	count := 0
	for _, r := range resources {
		for ui, u := range users {
			// Uploaders cannot rate their own resources.
			if ui == r.uploader {
				continue
			}
			// Leave some resources partially rated for variety.
			if rand.Intn(100) < 30 {
				continue
			}

			body := map[string]any{
				"resource_id": r.id,
				"stars":       1 + rand.Intn(5),
			}
			if rand.Intn(100) < 60 {
				body["review"] = reviews[rand.Intn(len(reviews))]
			}

			if _, err := httpPost(apiURL+"/api/v1/ratings", u.token, body); err != nil {
				return fmt.Errorf("rate %q as %s: %w", r.title, u.email, err)
			}
			count++
		}
	}

	log.Printf("submitted %d ratings", count)
	return nil
}
