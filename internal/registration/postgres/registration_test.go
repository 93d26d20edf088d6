package postgres_test

import (
	"context"
	"testing"

	userDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/dialer-dashboard/internal/registration"
	registrationPostgres "github.com/frahmantamala/dialer-dashboard/internal/registration/postgres"
	"github.com/frahmantamala/dialer-dashboard/internal/testsupport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestRegistrationPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Registration Postgres Suite")
}

var _ = Describe("Registration Repository", func() {
	var (
		db   *gorm.DB
		repo *registrationPostgres.Repository
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = testsupport.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		repo = registrationPostgres.NewRepository(db)
	})

	admin := registration.NewAdmin{Name: "Ada", Email: "ada@example.com", Username: "ada", PasswordHash: "hash"}

	It("creates a verified admin with default settings", func() {
		account, err := repo.CreateAdmin(ctx, admin)
		Expect(err).NotTo(HaveOccurred())

		var u userDatamodel.User
		Expect(db.First(&u, "id = ?", account.ID).Error).To(Succeed())
		Expect(u.Role).To(Equal("ADMIN"))
		Expect(u.Status).To(Equal("ACTIVE"))
		Expect(u.EmailVerified).NotTo(BeNil())

		var settings userDatamodel.AdminSettings
		Expect(db.First(&settings, "user_id = ?", account.ID).Error).To(Succeed())
		Expect(settings.PlanType).To(Equal("FREE"))
		Expect(settings.AvailableCredits).To(Equal(100))
		Expect(settings.Features).To(BeEmpty())
	})

	It("reports duplicates and leaves no partial rows", func() {
		_, err := repo.CreateAdmin(ctx, admin)
		Expect(err).NotTo(HaveOccurred())

		dup := admin
		dup.Email = "other@example.com"
		_, err = repo.CreateAdmin(ctx, dup)
		Expect(err).To(MatchError(registration.ErrDuplicate))

		var n int64
		db.Model(&userDatamodel.AdminSettings{}).Count(&n)
		Expect(n).To(Equal(int64(1)))
	})

	It("finds existing users by email or username", func() {
		_, err := repo.CreateAdmin(ctx, admin)
		Expect(err).NotTo(HaveOccurred())

		exists, err := repo.Exists(ctx, "ADA@example.com", "nobody")
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue())

		exists, err = repo.Exists(ctx, "new@example.com", "ada")
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue())

		exists, err = repo.Exists(ctx, "new@example.com", "new")
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeFalse())
	})
})
