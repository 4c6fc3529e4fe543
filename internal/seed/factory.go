package seed

import (
	"fmt"
	"strings"
	"time"

	"foros/internal/models"
	"foros/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory builds unsaved forum entities with fake content. A fixed seed
// yields the same content on every run.
type Factory struct {
	faker   *gofakeit.Faker
	maxDays int
	now     func() time.Time
	seq     int
}

// NewFactory returns a Factory; seed 0 picks a random seed.
func NewFactory(seed int64, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 30
	}
	return &Factory{faker: gofakeit.New(seed), maxDays: maxDays, now: time.Now}
}

// User builds a user with a unique username and email.
func (f *Factory) User(passwordHash string) *models.User {
	f.seq++
	base := strings.ToLower(f.faker.Username())
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, base)
	if len(base) < 3 {
		base = "user"
	}
	if len(base) > 20 {
		base = base[:20]
	}
	username := fmt.Sprintf("%s%d", base, f.seq)
	return &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: passwordHash,
		Bio:      f.faker.Sentence(8),
		Role:     models.RoleUser,
	}
}

// Foro builds a foro from fs, or a random one when fs is nil.
func (f *Factory) Foro(fs *ForoSeed, creatorID uint) *models.Foro {
	var name, description string
	if fs != nil {
		name, description = fs.Name, fs.Description
	} else {
		f.seq++
		name = fmt.Sprintf("%s %s %d", f.faker.HipsterWord(), f.faker.BuzzWord(), f.seq)
		description = f.faker.Sentence(12)
	}
	return &models.Foro{
		Name:        name,
		Slug:        validation.Slugify(name),
		Description: description,
		CreatedByID: creatorID,
	}
}

// Hilo builds a thread with a creation time spread over the last maxDays.
func (f *Factory) Hilo(foroID, authorID uint) *models.Hilo {
	return &models.Hilo{
		ForoID:    foroID,
		UserID:    authorID,
		Title:     strings.TrimSuffix(f.faker.Sentence(6), "."),
		Content:   f.faker.Paragraph(2, 3, 12, "\n\n"),
		CreatedAt: f.pastTime(),
	}
}

// Comentario builds a comment on hiloID.
func (f *Factory) Comentario(hiloID, authorID uint, parentID *uint) *models.Comentario {
	return &models.Comentario{
		HiloID:   hiloID,
		UserID:   authorID,
		ParentID: parentID,
		Content:  f.faker.Sentence(f.faker.Number(5, 25)),
	}
}

// Direction picks up with probability upRatio.
func (f *Factory) Direction(upRatio float64) string {
	if f.faker.Float64Range(0, 1) < upRatio {
		return "up"
	}
	return "down"
}

// Pick returns n distinct indexes from [0, size).
func (f *Factory) Pick(size, n int) []int {
	if n > size {
		n = size
	}
	idx := make([]int, size)
	for i := range idx {
		idx[i] = i
	}
	f.faker.ShuffleAnySlice(idx)
	return idx[:n]
}

// Intn returns a value in [0, n).
func (f *Factory) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return f.now().Add(-back)
}
