package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/voisoc/backend/internal/logger"
	"github.com/voisoc/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating follow graph...")
	if err := s.seedFollows(users, 200); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	log("Creating posts...")
	if err := s.seedPosts(users, 300); err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	log("Creating conversations...")
	if err := s.seedConversations(users, 100); err != nil {
		return fmt.Errorf("failed to seed conversations: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with a small fixed set of users
func (s *Seeder) SeedTest() error {
	logger.Log.Info("Creating test users...")

	testUserSpecs := []struct {
		username  string
		email     string
		firstName string
		lastName  string
		country   string
	}{
		{"alice", "alice@example.com", "Alice", "Smith", "Kenya"},
		{"bob", "bob@example.com", "Bob", "Johnson", "Ghana"},
		{"carol", "carol@example.com", "Carol", "Mwangi", "Kenya"},
		{"dave", "dave@example.com", "Dave", "Okafor", "Nigeria"},
	}

	var users []models.User
	for _, spec := range testUserSpecs {
		var user models.User
		err := s.db.Where("username = ? OR email = ?", spec.username, spec.email).First(&user).Error
		if err == nil {
			users = append(users, user)
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user = models.User{
			Email:         spec.email,
			Username:      spec.username,
			FirstName:     spec.firstName,
			LastName:      spec.lastName,
			Country:       spec.country,
			PasswordHash:  string(hashedPassword),
			EmailVerified: true,
			AvatarURL:     fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", spec.username),
			Interests:     models.StringArray{"technology", "music"},
		}

		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		users = append(users, user)
	}

	logger.Log.Info("Creating test posts...")
	if err := s.seedPosts(users, 8); err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Creating test conversations...")
	if err := s.seedConversations(users, 10); err != nil {
		return fmt.Errorf("failed to seed conversations: %w", err)
	}

	return nil
}

// Clean removes all seed data (use with caution!)
func (s *Seeder) Clean() error {
	// Delete in reverse order of dependencies
	for _, table := range []string{"messages", "follows", "posts", "password_resets", "sessions", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

var interestPool = []string{
	"technology", "music", "photography", "travel", "cooking", "fitness",
	"books", "film", "gaming", "art", "science", "fashion", "football",
}

// seedUsers creates users with realistic fake data
func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var users []models.User

	// Keep existing users so reseeding grows the dataset instead of
	// fighting unique constraints
	var existing []models.User
	if err := s.db.Find(&existing).Error; err == nil {
		users = append(users, existing...)
	}

	// Everyone gets the same password in dev
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	for i := 0; i < count; i++ {
		firstName := gofakeit.FirstName()
		lastName := gofakeit.LastName()
		username := strings.ToLower(fmt.Sprintf("%s%s%d", firstName, lastName, gofakeit.Number(1, 9999)))

		interests := models.StringArray{}
		for _, interest := range interestPool {
			if gofakeit.Bool() && len(interests) < 5 {
				interests = append(interests, interest)
			}
		}

		user := models.User{
			Email:         fmt.Sprintf("%s@%s", username, gofakeit.DomainName()),
			Username:      username,
			FirstName:     firstName,
			LastName:      lastName,
			Country:       gofakeit.Country(),
			PasswordHash:  string(hashedPassword),
			EmailVerified: gofakeit.Bool(),
			Headline:      gofakeit.JobTitle(),
			About:         gofakeit.Paragraph(1, 3, 12, " "),
			Location:      gofakeit.City(),
			AvatarURL:     fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
			Interests:     interests,
		}

		if err := s.db.Create(&user).Error; err != nil {
			// Duplicate username collisions are possible, just skip
			logger.Log.Warn("skipping seed user: " + err.Error())
			continue
		}
		users = append(users, user)
	}

	return users, nil
}

// seedFollows builds a random follow graph and keeps the cached
// counters consistent with the edges
func (s *Seeder) seedFollows(users []models.User, count int) error {
	if len(users) < 2 {
		return nil
	}

	for i := 0; i < count; i++ {
		follower := users[rand.Intn(len(users))]
		followee := users[rand.Intn(len(users))]
		if follower.ID == followee.ID {
			continue
		}

		var existing int64
		s.db.Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ?", follower.ID, followee.ID).
			Count(&existing)
		if existing > 0 {
			continue
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&models.Follow{
				FollowerID: follower.ID,
				FolloweeID: followee.ID,
			}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).
				Where("id = ?", followee.ID).
				UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).
				Where("id = ?", follower.ID).
				UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// seedPosts creates posts with spread-out timestamps and some reactions
func (s *Seeder) seedPosts(users []models.User, count int) error {
	if len(users) == 0 {
		return nil
	}

	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		post := models.Post{
			UserID:   author.ID,
			Content:  gofakeit.Sentence(gofakeit.Number(5, 25)),
			Likes:    gofakeit.Number(0, 120),
			Love:     gofakeit.Number(0, 40),
			Dislikes: gofakeit.Number(0, 10),
			Anger:    gofakeit.Number(0, 5),
		}

		// Occasionally attach an image
		if gofakeit.Number(1, 4) == 1 {
			post.Media = []models.MediaAttachment{{
				URL:  fmt.Sprintf("https://picsum.photos/seed/%d/800/600", gofakeit.Number(1, 100000)),
				Type: "image",
				Size: int64(gofakeit.Number(50_000, 2_000_000)),
			}}
		}

		if err := s.db.Create(&post).Error; err != nil {
			return err
		}

		// Backdate so feeds have a spread of ages
		createdAt := time.Now().Add(-time.Duration(gofakeit.Number(0, 60*24*30)) * time.Minute)
		if err := s.db.Model(&post).UpdateColumn("created_at", createdAt).Error; err != nil {
			return err
		}

		if err := s.db.Model(&models.User{}).
			Where("id = ?", author.ID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error; err != nil {
			return err
		}
	}

	return nil
}

// seedConversations creates back-and-forth message threads between
// random user pairs
func (s *Seeder) seedConversations(users []models.User, pairs int) error {
	if len(users) < 2 {
		return nil
	}

	openers := []string{
		"Hey, how have you been?",
		"Did you see that post earlier?",
		"Long time no talk!",
		"Quick question for you",
		"hi",
	}

	for i := 0; i < pairs; i++ {
		a := users[rand.Intn(len(users))]
		b := users[rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}

		base := time.Now().Add(-time.Duration(gofakeit.Number(1, 24*14)) * time.Hour)
		turns := gofakeit.Number(2, 8)

		for t := 0; t < turns; t++ {
			sender, recipient := a, b
			if t%2 == 1 {
				sender, recipient = b, a
			}

			text := gofakeit.Sentence(gofakeit.Number(2, 12))
			if t == 0 {
				text = openers[rand.Intn(len(openers))]
			}

			message := models.Message{
				SenderID:    sender.ID,
				RecipientID: recipient.ID,
				Text:        text,
				Status:      models.MessageStatusSent,
				CreatedAt:   base.Add(time.Duration(t) * time.Minute),
			}
			if err := s.db.Create(&message).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
