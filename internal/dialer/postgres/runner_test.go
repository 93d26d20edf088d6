package postgres_test

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/campaign"
	campaignDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/campaign"
	contactDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/contact"
	"github.com/frahmantamala/dialer-dashboard/internal/dialer"
	dialerPostgres "github.com/frahmantamala/dialer-dashboard/internal/dialer/postgres"
	"github.com/frahmantamala/dialer-dashboard/internal/testsupport"
	"github.com/frahmantamala/dialer-dashboard/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

// stubCaller answers start_call with status, or blocks until the call context ends when hang is set.
type stubCaller struct {
	status  int
	hang    bool
	started chan string
}

func (c *stubCaller) Configured() bool { return true }

func (c *stubCaller) StartCall(ctx context.Context, req dialer.StartCallRequest) (*dialer.Response, error) {
	if c.started != nil {
		c.started <- req.ToNumber
	}
	if c.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &dialer.Response{Status: c.status, Body: []byte(`{"error":"busy"}`)}, nil
}

func (c *stubCaller) AllTranscripts(context.Context) ([]dialer.TranscriptSummary, error) {
	return nil, nil
}

func (c *stubCaller) Transcript(context.Context, string) (map[string]interface{}, error) {
	return nil, dialer.ErrTranscriptNotFound
}

var _ = Describe("Scheduled call runner", func() {
	var (
		db     *gorm.DB
		store  *dialerPostgres.Store
		caller *stubCaller
		cfg    internal.DialerConfig
		camp   *campaignDatamodel.Campaign
		ann    *contactDatamodel.Contact
	)

	BeforeEach(func() {
		var err error
		db, err = testsupport.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		// workers and the spec share one in-memory database
		sqlDB.SetMaxOpenConns(1)
		store = dialerPostgres.NewStore(db)

		camp = &campaignDatamodel.Campaign{Name: "Spring", Status: campaign.StatusActive, AdminID: "admin-1"}
		Expect(db.Create(camp).Error).To(Succeed())
		ann = &contactDatamodel.Contact{Name: "Ann", Phone: "+100", Status: "ACTIVE", AdminID: "admin-1"}
		Expect(db.Create(ann).Error).To(Succeed())
		Expect(db.Create(&campaignDatamodel.CampaignContact{CampaignID: camp.ID, ContactID: ann.ID, Status: "ACTIVE"}).Error).To(Succeed())

		caller = &stubCaller{status: http.StatusServiceUnavailable, started: make(chan string, 10)}
		cfg = internal.DialerConfig{MaxWorkers: 1, JobQueueSize: 10, PollInterval: time.Hour, BatchSize: 10, MaxAttempts: 3}
	})

	schedule := func(ago time.Duration) *campaignDatamodel.ScheduledCall {
		sc := &campaignDatamodel.ScheduledCall{
			CampaignID:  camp.ID,
			ContactID:   ann.ID,
			Phone:       ann.Phone,
			ScheduledAt: time.Now().UTC().Add(-ago),
			Status:      campaign.CallPending,
		}
		Expect(db.Create(sc).Error).To(Succeed())
		return sc
	}

	load := func(id string) (campaignDatamodel.ScheduledCall, error) {
		var sc campaignDatamodel.ScheduledCall
		err := db.Where("id = ?", id).First(&sc).Error
		return sc, err
	}

	newRunner := func() *dialer.Runner {
		service := dialer.NewService(caller, store, nil, nil, logger.Discard())
		return dialer.NewRunner(service, store, cfg, logger.Discard())
	}

	start := func(runner *dialer.Runner) (context.CancelFunc, chan struct{}) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			runner.Run(ctx, 50*time.Millisecond)
		}()
		return cancel, done
	}

	It("puts a failed call back to PENDING with one attempt spent", func() {
		sc := schedule(time.Minute)
		cancel, done := start(newRunner())
		defer func() {
			cancel()
			Eventually(done).Should(BeClosed())
		}()

		Eventually(func() (int, error) {
			row, err := load(sc.ID)
			return row.Attempts, err
		}).Should(Equal(1))

		row, err := load(sc.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(row.Status).To(Equal(campaign.CallPending))
		Expect(*row.LastError).To(ContainSubstring("Failed to initiate call"))
	})

	It("releases calls cut off by shutdown so the next run dials them", func() {
		caller.hang = true
		first := schedule(2 * time.Minute)
		second := schedule(time.Minute)
		cancel, done := start(newRunner())

		Eventually(caller.started).Should(Receive(Equal("+100")))
		cancel()
		Eventually(done, 5*time.Second).Should(BeClosed())

		inFlight, err := load(first.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(inFlight.Status).To(Equal(campaign.CallPending))
		Expect(inFlight.Attempts).To(Equal(1))

		queued, err := load(second.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(queued.Status).To(Equal(campaign.CallPending))
		Expect(queued.Attempts).To(BeZero())

		due, err := store.DueCalls(context.Background(), time.Now().UTC(), 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(due).To(HaveLen(2))
	})

	It("hands back calls it could not queue, even after the tick context expired", func() {
		cfg.JobQueueSize = 1
		calls := []*campaignDatamodel.ScheduledCall{schedule(3 * time.Minute), schedule(2 * time.Minute), schedule(time.Minute)}
		// the pool is never started, so only one call fits
		runner := newRunner()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		Expect(runner.Tick(ctx)).To(Equal(1))

		statuses := make([]string, 0, len(calls))
		for _, c := range calls {
			row, err := load(c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(row.Attempts).To(BeZero())
			statuses = append(statuses, row.Status)
		}
		Expect(statuses).To(Equal([]string{campaign.CallDialing, campaign.CallPending, campaign.CallPending}))
	})
})
