package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/unimind/wellness-api/internal/logging"
	"github.com/unimind/wellness-api/internal/models"
	"github.com/unimind/wellness-api/internal/utils"
)

type userUpserter interface {
	UpsertByUsername(ctx context.Context, user models.User) (models.User, bool, error)
}

// CounselorSeed describes a counselor account created at startup.
type CounselorSeed struct {
	Username  string
	Name      string
	Email     string
	Specialty string
	Password  string
}

// DemoCounselors are the counselors the bundled frontend lists and logs in as.
var DemoCounselors = []CounselorSeed{
	{
		Username:  "therapist1",
		Name:      "Dr. A. Sharma",
		Email:     "dr.sharma@mindfulness.com",
		Specialty: "Cognitive Behavioral Therapy",
		Password:  "therapist123",
	},
	{
		Username:  "therapist2",
		Name:      "Ms. R. Iyer",
		Email:     "ms.iyer@mindfulness.com",
		Specialty: "Anxiety & Depression",
		Password:  "therapist456",
	},
}

// Provisioner creates well-known accounts idempotently.
type Provisioner struct {
	users  userUpserter
	hash   func(string) (string, error)
	logger *logrus.Entry
}

// NewProvisioner constructs a Provisioner backed by users.
func NewProvisioner(users userUpserter, logger *logrus.Entry) *Provisioner {
	if logger == nil {
		logger = logging.Logger()
	}
	return &Provisioner{
		users:  users,
		hash:   utils.HashPassword,
		logger: logger,
	}
}

// EnsureDemoStudent returns the demo student, creating it on first use.
// Concurrent and repeated calls converge on a single record.
func (p *Provisioner) EnsureDemoStudent(ctx context.Context) (models.User, error) {
	return p.ensure(ctx, models.User{
		Name:     models.DemoStudentName,
		Email:    models.DemoStudentEmail,
		Username: models.DemoStudentUsername,
		Role:     models.RoleStudent,
	}, models.DemoStudentPassword)
}

// EnsureCounselors provisions every seed that does not exist yet.
func (p *Provisioner) EnsureCounselors(ctx context.Context, seeds []CounselorSeed) error {
	for _, seed := range seeds {
		_, err := p.ensure(ctx, models.User{
			Name:      seed.Name,
			Email:     seed.Email,
			Username:  seed.Username,
			Role:      models.RoleCounselor,
			Specialty: seed.Specialty,
		}, seed.Password)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Provisioner) ensure(ctx context.Context, user models.User, password string) (models.User, error) {
	if p == nil || p.users == nil {
		return models.User{}, errors.New("provisioner is not initialized")
	}

	hashed, err := p.hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password for %s: %w", user.Username, err)
	}
	user.Password = hashed

	stored, created, err := p.users.UpsertByUsername(ctx, user)
	if err != nil {
		return models.User{}, fmt.Errorf("provision %s: %w", user.Username, err)
	}

	if created {
		p.logger.WithFields(logging.Fields{
			"event":    "user_provisioned",
			"username": stored.Username,
			"role":     stored.Role,
			"user_id":  stored.ID.Hex(),
		}).Info("provisioned demo user")
	}
	return stored, nil
}
