// Package main provides a tool to seed the database with test reading data.
//
// It creates test users, a small book catalog, and two weeks of reading
// sessions, reviews, marks, and follows to exercise stats, streaks, and the
// activity feed during development.
//
// Usage:
//
//	DATA_PATH=~/Shelfmark/data go run ./cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shelfmarkapp/shelfmark-server/internal/auth"
	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

var userCount = flag.Int("users", 5, "Number of test users to create")

// testUsers are the accounts the seeder creates. All share the password
// "testpass123".
var testUsers = []string{
	"Alex Rivera",
	"Jordan Chen",
	"Sam Taylor",
	"Casey Morgan",
	"Riley Kim",
}

// testBooks is a small catalog spread across the test users.
var testBooks = []struct {
	title  string
	author string
	year   int
}{
	{"The Left Hand of Darkness", "Ursula K. Le Guin", 1969},
	{"Kindred", "Octavia E. Butler", 1979},
	{"The Name of the Wind", "Patrick Rothfuss", 2007},
	{"Piranesi", "Susanna Clarke", 2020},
	{"The Fifth Season", "N.K. Jemisin", 2015},
	{"A Memory Called Empire", "Arkady Martine", 2019},
	{"The Dispossessed", "Ursula K. Le Guin", 1974},
	{"Annihilation", "Jeff VanderMeer", 2014},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/Shelfmark/data")
	}
	dbPath := filepath.Join(dataPath, "shelfmark.db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	db, err := sqlite.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	users := createTestUsers(ctx, db)
	if len(users) == 0 {
		log.Fatal("No users available for seeding")
	}

	books := createTestBooks(ctx, db, rng, users)
	if len(books) == 0 {
		log.Fatal("No books available for seeding")
	}

	for _, user := range users {
		seedReadingHistory(ctx, db, rng, user, books)
		seedReviewsAndMarks(ctx, db, rng, user, books)
	}

	seedFollows(ctx, db, users)

	fmt.Println("\nSeeding complete!")
}

// createTestUsers creates the test accounts, skipping any that already exist.
func createTestUsers(ctx context.Context, db *sqlite.Store) []*domain.User {
	fmt.Println("\n=== Creating Test Users ===")

	passwordHash, err := auth.HashPassword("testpass123")
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	count := min(*userCount, len(testUsers))
	now := time.Now()
	users := make([]*domain.User, 0, count)

	for i, name := range testUsers[:count] {
		email := fmt.Sprintf("test%d@example.com", i+1)

		if existing, _ := db.GetUserByEmail(ctx, email); existing != nil {
			fmt.Printf("  User %s already exists, reusing\n", email)
			users = append(users, existing)
			continue
		}

		user := &domain.User{
			Record: domain.Record{
				ID:        id.MustGenerate("user"),
				CreatedAt: now,
				UpdatedAt: now,
			},
			Email:        email,
			Name:         name,
			PasswordHash: passwordHash,
			IsAdmin:      i == 0, // first seeded account is the admin
			LastLoginAt:  now,
		}

		if err := db.CreateUser(ctx, user); err != nil {
			log.Printf("  Failed to create user %s: %v", name, err)
			continue
		}

		fmt.Printf("  Created user: %s (%s)\n", name, email)
		users = append(users, user)
	}

	return users
}

// createTestBooks fills the catalog, assigning each book a random owner.
func createTestBooks(ctx context.Context, db *sqlite.Store, rng *rand.Rand, users []*domain.User) []*domain.Book {
	fmt.Println("\n=== Creating Test Books ===")

	now := time.Now()
	books := make([]*domain.Book, 0, len(testBooks))

	for _, tb := range testBooks {
		existing, err := db.ListBooks(ctx, sqlite.BookFilter{Title: tb.title}, 1, 0)
		if err == nil && len(existing) > 0 {
			fmt.Printf("  Book %q already exists, reusing\n", tb.title)
			books = append(books, existing[0])
			continue
		}

		publishDate := domain.NewDate(tb.year, time.January, 1)
		book := &domain.Book{
			Record: domain.Record{
				ID:        id.MustGenerate("book"),
				CreatedAt: now,
				UpdatedAt: now,
			},
			OwnerID:     users[rng.Intn(len(users))].ID,
			Title:       tb.title,
			AuthorName:  tb.author,
			PublishDate: &publishDate,
			IsVerified:  rng.Float32() < 0.5,
		}

		if err := db.CreateBook(ctx, book); err != nil {
			log.Printf("  Failed to create book %q: %v", tb.title, err)
			continue
		}

		fmt.Printf("  Created book: %s by %s\n", tb.title, tb.author)
		books = append(books, book)
	}

	return books
}

// seedReadingHistory creates closed reading sessions over the past 14 days.
// Today and yesterday always get a session so streaks come out active.
func seedReadingHistory(ctx context.Context, db *sqlite.Store, rng *rand.Rand, user *domain.User, books []*domain.Book) {
	fmt.Printf("\nSeeding reading history for: %s\n", user.Name)

	now := time.Now()
	created := 0
	activeDays := make([]bool, 14)

	for day := 13; day >= 0; day-- {
		// 80% chance of reading on older days, for realism
		if day > 1 && rng.Float32() > 0.8 {
			continue
		}
		activeDays[day] = true

		sessionsPerDay := 1 + rng.Intn(3)
		for i := 0; i < sessionsPerDay; i++ {
			book := books[rng.Intn(len(books))]

			// Random time during the day (6am - 11pm)
			hour := 6 + rng.Intn(17)
			minute := rng.Intn(60)
			start := time.Date(now.Year(), now.Month(), now.Day()-day, hour, minute, 0, 0, time.Local)

			durationMin := int64(5 + rng.Intn(40))
			end := start.Add(time.Duration(durationMin) * time.Minute)

			session := &domain.ReadingSession{
				ID:          id.MustGenerate("rsession"),
				UserID:      user.ID,
				BookID:      book.ID,
				StartTime:   start,
				EndTime:     &end,
				DurationMin: &durationMin,
				CreatedAt:   start,
			}

			if err := db.CreateReadingSession(ctx, session); err != nil {
				log.Printf("  Failed to create session: %v", err)
				continue
			}
			created++
		}
	}

	// Advance the streak as if the user read on each seeded day
	prev := user.Streak()
	streak := prev
	for day := 13; day >= 0; day-- {
		if !activeDays[day] {
			continue
		}
		streak, _ = domain.AdvanceStreak(streak, domain.DateOf(now.AddDate(0, 0, -day)))
	}
	user.ApplyStreak(streak)
	if _, err := db.ConditionalUpdateStreak(ctx, user.ID, prev, streak); err != nil {
		log.Printf("  Failed to update streak: %v", err)
	}

	fmt.Printf("  Created %d reading sessions\n", created)
}

// seedReviewsAndMarks adds a review and a mark for a couple of random books.
func seedReviewsAndMarks(ctx context.Context, db *sqlite.Store, rng *rand.Rand, user *domain.User, books []*domain.Book) {
	now := time.Now()

	for _, book := range pickBooks(rng, books, 2+rng.Intn(2)) {
		if existing, _ := db.GetReviewByUserAndBook(ctx, user.ID, book.ID); existing != nil {
			continue
		}

		// Halves between 2.5 and 5.0
		rating := 2.5 + float64(rng.Intn(6))*0.5
		review := &domain.Review{
			Record: domain.Record{
				ID:        id.MustGenerate("review"),
				CreatedAt: now,
				UpdatedAt: now,
			},
			UserID:  user.ID,
			BookID:  book.ID,
			Rating:  &rating,
			Comment: fmt.Sprintf("Really enjoyed %s.", book.Title),
		}

		if err := db.CreateReview(ctx, review); err != nil {
			log.Printf("  Failed to create review: %v", err)
			continue
		}

		mark := &domain.Mark{
			UserID:   user.ID,
			BookID:   book.ID,
			MarkedAt: now,
		}
		if err := db.CreateMark(ctx, mark); err != nil {
			log.Printf("  Failed to create mark: %v", err)
		}
	}
}

// seedFollows wires a simple follow graph: everyone follows the first user,
// and the first user follows everyone back.
func seedFollows(ctx context.Context, db *sqlite.Store, users []*domain.User) {
	if len(users) < 2 {
		return
	}

	fmt.Println("\n=== Creating Follows ===")

	now := time.Now()
	first := users[0]

	for _, user := range users[1:] {
		pairs := []domain.Follow{
			{FollowerID: user.ID, FollowedID: first.ID, FollowedAt: now},
			{FollowerID: first.ID, FollowedID: user.ID, FollowedAt: now},
		}
		for _, follow := range pairs {
			if following, _ := db.IsFollowing(ctx, follow.FollowerID, follow.FollowedID); following {
				continue
			}
			if err := db.CreateFollow(ctx, &follow); err != nil {
				log.Printf("  Failed to create follow: %v", err)
			}
		}
	}

	fmt.Printf("  %s and %d others now follow each other\n", first.Name, len(users)-1)
}

// pickBooks returns n random distinct books.
func pickBooks(rng *rand.Rand, books []*domain.Book, n int) []*domain.Book {
	shuffled := make([]*domain.Book, len(books))
	copy(shuffled, books)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:min(n, len(shuffled))]
}
