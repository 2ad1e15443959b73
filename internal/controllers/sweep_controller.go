package controllers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/quotemint/billing-service/internal/config"
	"github.com/quotemint/billing-service/internal/services"
	"github.com/quotemint/billing-service/internal/utils"
)

// SweepController exposes the sweep engines to the external scheduler.
// The in-process cron calls the services directly; these endpoints
// exist for ad-hoc runs and for platforms without a reliable cron.
type SweepController struct {
	cfg             *config.Config
	dunningService  *services.DunningService
	followUpService *services.FollowUpService
}

func NewSweepController(cfg *config.Config, ds *services.DunningService, fs *services.FollowUpService) *SweepController {
	return &SweepController{cfg: cfg, dunningService: ds, followUpService: fs}
}

// DunningSweepHandler -> GET /api/v1/billing/sweeps/dunning
func (c *SweepController) DunningSweepHandler(w http.ResponseWriter, r *http.Request) {
	if !c.authorized(r) {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid sweep credential", nil)
		return
	}
	summary, err := c.dunningService.RunSweep(r.Context())
	c.respondSweep(w, summary, err)
}

// FollowUpSweepHandler -> GET /api/v1/billing/sweeps/follow-ups
func (c *SweepController) FollowUpSweepHandler(w http.ResponseWriter, r *http.Request) {
	if !c.authorized(r) {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid sweep credential", nil)
		return
	}
	summary, err := c.followUpService.RunSweep(r.Context())
	c.respondSweep(w, summary, err)
}

// respondSweep reports a top-level sweep failure with whatever partial
// summary the run accumulated, so the scheduler's logs still show how
// far it got.
func (c *SweepController) respondSweep(w http.ResponseWriter, summary *services.SweepSummary, err error) {
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Sweep failed", summary, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, summary)
}

func (c *SweepController) authorized(r *http.Request) bool {
	if c.cfg.CronSharedSecret == "" {
		return true
	}
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return false
	}
	got := strings.TrimPrefix(h, "Bearer ")
	return subtle.ConstantTimeCompare([]byte(got), []byte(c.cfg.CronSharedSecret)) == 1
}
