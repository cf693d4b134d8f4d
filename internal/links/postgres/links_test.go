package postgres_test

import (
	"testing"

	"github.com/commandos-health/commandos/internal/links"
	linksPostgres "github.com/commandos-health/commandos/internal/links/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLinksPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Links Postgres Suite")
}

var _ = Describe("Link Repository", func() {
	var (
		db   *gorm.DB
		repo *linksPostgres.LinkRepository
	)

	createLink := func(userID int64, title string, position int) *links.ExternalLink {
		l := &links.ExternalLink{UserID: userID, Title: title, URL: "https://example.com", Position: position}
		Expect(repo.Create(l)).To(Succeed())
		return l
	}

	BeforeEach(func() {
		var err error
		// Use SQLite in-memory database for testing
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&links.ExternalLink{})
		Expect(err).NotTo(HaveOccurred())

		repo = linksPostgres.NewLinkRepository(db)
	})

	Describe("GetByUserID", func() {
		It("should return only the user's links ordered by position", func() {
			createLink(1, "b", 1)
			createLink(1, "a", 0)
			createLink(2, "other", 0)

			out, err := repo.GetByUserID(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(2))
			Expect(out[0].Title).To(Equal("a"))
			Expect(out[1].Title).To(Equal("b"))
		})
	})

	Describe("GetByID", func() {
		It("should return a stored link", func() {
			l := createLink(1, "stored", 0)

			found, err := repo.GetByID(l.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.Title).To(Equal("stored"))
		})

		It("should map a missing row to ErrLinkNotFound", func() {
			_, err := repo.GetByID(999)
			Expect(err).To(Equal(links.ErrLinkNotFound))
		})
	})

	Describe("Delete", func() {
		It("should delete only when the owner matches", func() {
			l := createLink(1, "mine", 0)

			Expect(repo.Delete(l.ID, 2)).To(Equal(links.ErrLinkNotFound))
			Expect(repo.Delete(l.ID, 1)).To(Succeed())

			_, err := repo.GetByID(l.ID)
			Expect(err).To(Equal(links.ErrLinkNotFound))
		})
	})

	Describe("ReorderForUser", func() {
		It("should rewrite positions in one transaction", func() {
			a := createLink(1, "a", 0)
			b := createLink(1, "b", 1)
			c := createLink(1, "c", 2)

			err := repo.ReorderForUser(1, []int64{c.ID, a.ID, b.ID})
			Expect(err).NotTo(HaveOccurred())

			out, err := repo.GetByUserID(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(out[0].Title).To(Equal("c"))
			Expect(out[1].Title).To(Equal("a"))
			Expect(out[2].Title).To(Equal("b"))
		})

		It("should roll back when an id belongs to another user", func() {
			a := createLink(1, "a", 0)
			foreign := createLink(2, "foreign", 0)

			err := repo.ReorderForUser(1, []int64{foreign.ID, a.ID})
			Expect(err).To(Equal(links.ErrLinkNotFound))

			out, err := repo.GetByUserID(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(out[0].Position).To(Equal(0))
		})
	})
})
