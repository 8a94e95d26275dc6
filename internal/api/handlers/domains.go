package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inboxkit/domainverify/internal/db"
	"github.com/inboxkit/domainverify/internal/dnscheck"
	"github.com/inboxkit/domainverify/internal/domaininfo"
)

type DomainHandler struct {
	repo     *db.Repository
	verifier *dnscheck.Verifier
	whois    *domaininfo.WHOISChecker
	logger   *zap.Logger
}

func NewDomainHandler(repo *db.Repository, verifier *dnscheck.Verifier, whois *domaininfo.WHOISChecker, logger *zap.Logger) *DomainHandler {
	return &DomainHandler{repo: repo, verifier: verifier, whois: whois, logger: logger}
}

type CreateDomainRequest struct {
	Domain string `json:"domain" binding:"required,fqdn"`
}

func (h *DomainHandler) ListDomains(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	domains, err := h.repo.ListDomains(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list domains"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"domains": domains,
		"count":   len(domains),
	})
}

func (h *DomainHandler) CreateDomain(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req CreateDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exists, err := h.repo.DomainExists(c.Request.Context(), req.Domain)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check domain"})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "Domain already registered"})
		return
	}

	domain := &db.Domain{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      req.Domain,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := h.repo.CreateDomain(c.Request.Context(), domain); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create domain"})
		return
	}

	c.JSON(http.StatusCreated, domain)
}

func (h *DomainHandler) GetDomain(c *gin.Context) {
	domain, ok := h.domainFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, domain)
}

func (h *DomainHandler) DeleteDomain(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid domain id"})
		return
	}

	if err := h.repo.DeleteDomain(c.Request.Context(), domainID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete domain"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// GetDomainDNS returns the expected record sets the operator must publish
// at their registrar, plus the domain's current verification flags. The
// ownership token is generated on first view, like the rest of the record
// set it stays stable afterwards.
func (h *DomainHandler) GetDomainDNS(c *gin.Context) {
	domain, ok := h.domainFromPath(c)
	if !ok {
		return
	}

	if !domain.OwnershipVerified && domain.OwnershipTxtToken == "" {
		token := randomToken()
		if err := h.repo.SetOwnershipToken(c.Request.Context(), domain.ID, token); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate verification token"})
			return
		}
		domain.OwnershipTxtToken = token
	}

	expector := h.verifier.Expector()

	tiers := expector.MXTiers()
	priorities := make([]int, 0, len(tiers))
	for priority := range tiers {
		priorities = append(priorities, int(priority))
	}
	sort.Ints(priorities)

	mxRecords := make([]gin.H, 0, len(priorities))
	for _, priority := range priorities {
		mxRecords = append(mxRecords, gin.H{
			"priority": priority,
			"host":     tiers[uint16(priority)].Recommended,
		})
	}

	dkimRecords := make([]gin.H, 0, len(expector.DKIMPrefixes()))
	for _, prefix := range expector.DKIMPrefixes() {
		dkimRecords = append(dkimRecords, gin.H{
			"host":   expector.DKIMHost(prefix, domain.Name),
			"target": expector.DKIMTarget(prefix).Recommended,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"domain": domain,
		"ownership": gin.H{
			"host":   domain.Name,
			"record": expector.OwnershipTXT(domain.OwnershipTxtToken).Recommended,
		},
		"mx": mxRecords,
		"spf": gin.H{
			"host":   domain.Name,
			"record": expector.SPF().Recommended,
		},
		"dkim": dkimRecords,
		"dmarc": gin.H{
			"host":   expector.DMARCHost(domain.Name),
			"record": expector.DMARC().Recommended,
		},
	})
}

type VerifyRequest struct {
	Category string `json:"category" binding:"required"`
}

// VerifyDomain runs one category check and returns the renderable result.
func (h *DomainHandler) VerifyDomain(c *gin.Context) {
	domain, ok := h.domainFromPath(c)
	if !ok {
		return
	}

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := dnscheck.ParseCategory(req.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if category == dnscheck.CategoryOwnership && !domain.OwnershipVerified && domain.OwnershipTxtToken == "" {
		token := randomToken()
		if err := h.repo.SetOwnershipToken(c.Request.Context(), domain.ID, token); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate verification token"})
			return
		}
		domain.OwnershipTxtToken = token
	}

	result, err := h.verifier.Verify(c.Request.Context(), domain, category)
	if err != nil {
		h.logger.Error("verification failed",
			zap.Error(err),
			zap.String("domain", domain.Name),
			zap.String("category", string(category)),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRegistration returns registrar and expiry info from whois.
func (h *DomainHandler) GetRegistration(c *gin.Context) {
	domain, ok := h.domainFromPath(c)
	if !ok {
		return
	}

	details, err := h.whois.Check(domain.Name)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "WHOIS lookup failed"})
		return
	}

	c.JSON(http.StatusOK, details)
}

func (h *DomainHandler) ListEvents(c *gin.Context) {
	domain, ok := h.domainFromPath(c)
	if !ok {
		return
	}

	events, err := h.repo.ListEvents(c.Request.Context(), domain.ID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *DomainHandler) domainFromPath(c *gin.Context) (*db.Domain, bool) {
	userID := c.MustGet("user_id").(uuid.UUID)

	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid domain id"})
		return nil, false
	}

	domain, err := h.repo.GetDomain(c.Request.Context(), domainID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Domain not found"})
		return nil, false
	}

	return domain, true
}

func randomToken() string {
	buf := make([]byte, 15)
	if _, err := rand.Read(buf); err != nil {
		// The platform cannot mint ownership tokens without entropy.
		panic(err)
	}
	return hex.EncodeToString(buf)
}
