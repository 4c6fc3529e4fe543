package seed

import (
	"context"
	"fmt"

	"foros/internal/middleware"
	"foros/internal/models"
	"foros/internal/repository"
	"foros/internal/service"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Summary counts what a run created.
type Summary struct {
	Users       int
	Foros       int
	Hilos       int
	Comentarios int
	Votes       int
}

// Seeder writes preset content through the repositories. Votes go through
// the vote service so counters always match the ledger.
type Seeder struct {
	db          *gorm.DB
	users       repository.UserRepository
	foros       repository.ForoRepository
	hilos       repository.HiloRepository
	comentarios repository.ComentarioRepository
	votes       *service.VoteService
}

// NewSeeder binds a seeder to db. votes may be nil to build one without
// notifications or live updates.
func NewSeeder(db *gorm.DB, votes *service.VoteService) *Seeder {
	if votes == nil {
		votes = service.NewVoteService(repository.NewVoteRepository(db), nil, nil, nil,
			service.DefaultVoteRetryPolicy())
	}
	return &Seeder{
		db:          db,
		users:       repository.NewUserRepository(db),
		foros:       repository.NewForoRepository(db),
		hilos:       repository.NewHiloRepository(db),
		comentarios: repository.NewComentarioRepository(db),
		votes:       votes,
	}
}

// ClearAll removes all forum content and users.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []interface{}{
		&models.Notificacion{},
		&models.Vote{},
		&models.Comentario{},
		&models.Hilo{},
		&models.Foro{},
		&models.User{},
	} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	middleware.Logger.Info("database cleared")
	return nil
}

// Run creates the preset's users, foros, hilos, comments and votes.
func (s *Seeder) Run(ctx context.Context, p Preset) (*Summary, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	f := NewFactory(p.Seed, p.MaxDays)
	sum := &Summary{}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	users := make([]*models.User, 0, p.Users)
	for i := 0; i < p.Users; i++ {
		u := f.User(string(hash))
		if err := s.users.Create(ctx, u); err != nil {
			return sum, fmt.Errorf("create user %s: %w", u.Username, err)
		}
		users = append(users, u)
		sum.Users++
	}

	foros := make([]*models.Foro, 0, len(p.Foros)+p.RandomForos)
	for i := range p.Foros {
		foros = append(foros, f.Foro(&p.Foros[i], users[f.Intn(len(users))].ID))
	}
	for i := 0; i < p.RandomForos; i++ {
		foros = append(foros, f.Foro(nil, users[f.Intn(len(users))].ID))
	}

	for _, foro := range foros {
		if err := s.foros.Create(ctx, foro); err != nil {
			return sum, fmt.Errorf("create foro %q: %w", foro.Name, err)
		}
		sum.Foros++

		for h := 0; h < p.HilosPerForo; h++ {
			hilo := f.Hilo(foro.ID, users[f.Intn(len(users))].ID)
			if err := s.hilos.Create(ctx, hilo); err != nil {
				return sum, fmt.Errorf("create hilo: %w", err)
			}
			sum.Hilos++

			if err := s.seedComentarios(ctx, f, p, users, hilo, sum); err != nil {
				return sum, err
			}
			if err := s.seedVotes(ctx, f, p, users, hilo, sum); err != nil {
				return sum, err
			}
		}
	}

	middleware.Logger.Info("seed complete",
		"preset", p.Name,
		"users", sum.Users,
		"foros", sum.Foros,
		"hilos", sum.Hilos,
		"comentarios", sum.Comentarios,
		"votes", sum.Votes,
	)
	return sum, nil
}

func (s *Seeder) seedComentarios(ctx context.Context, f *Factory, p Preset, users []*models.User, hilo *models.Hilo, sum *Summary) error {
	var created []uint
	for i := 0; i < p.ComentariosPerHilo; i++ {
		var parent *uint
		// roughly a third of comments reply to an earlier one
		if len(created) > 0 && f.Intn(3) == 0 {
			id := created[f.Intn(len(created))]
			parent = &id
		}
		c := f.Comentario(hilo.ID, users[f.Intn(len(users))].ID, parent)
		if err := s.comentarios.Create(ctx, c); err != nil {
			return fmt.Errorf("create comentario: %w", err)
		}
		created = append(created, c.ID)
		sum.Comentarios++
	}
	return nil
}

func (s *Seeder) seedVotes(ctx context.Context, f *Factory, p Preset, users []*models.User, hilo *models.Hilo, sum *Summary) error {
	for _, i := range f.Pick(len(users), p.VotesPerHilo) {
		if _, err := s.votes.VoteOnHilo(ctx, hilo.ID, users[i].ID, f.Direction(p.UpvoteRatio)); err != nil {
			return fmt.Errorf("vote on hilo %d: %w", hilo.ID, err)
		}
		sum.Votes++
	}
	return nil
}
