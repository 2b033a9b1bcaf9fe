package handlers

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pmb-docgen/internal/convert"
	"pmb-docgen/internal/ledger"
	"pmb-docgen/internal/pipeline"
	"pmb-docgen/internal/placeholders"
	"pmb-docgen/internal/queue"
	"pmb-docgen/internal/templates"
)

// Handler wires the generation pipeline, queue and ledgers to the HTTP
// surface.
type Handler struct {
	pipeline        *pipeline.Pipeline
	governor        *queue.Governor
	ledgers         *ledger.Ledger
	resolver        *templates.Resolver
	converter       *convert.Service
	credentialsFile string
	tempDir         string
	log             *slog.Logger
}

func New(p *pipeline.Pipeline, g *queue.Governor, l *ledger.Ledger, r *templates.Resolver,
	conv *convert.Service, credentialsFile, tempDir string, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline:        p,
		governor:        g,
		ledgers:         l,
		resolver:        r,
		converter:       conv,
		credentialsFile: credentialsFile,
		tempDir:         tempDir,
		log:             logger,
	}
}

type applicantFields struct {
	CV                    float64 `json:"cv"`
	Name                  string  `json:"name"`
	PensionCompany        string  `json:"pensionCompany"`
	PensionNo             string  `json:"pensionNo"`
	PensionCompanyAddress string  `json:"pensionCompanyAddress"`
	AccountNo             string  `json:"accountNo"`
	Address               string  `json:"address"`
	DOB                   string  `json:"dob"`
	MortgageBank          string  `json:"mortgageBank"`
	MortgageBankAddress   string  `json:"mortgageBankAddress"`
}

func (f *applicantFields) missingFields() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if f.CV <= 0 {
		missing = append(missing, "cv")
	}
	check("name", f.Name)
	check("pensionCompany", f.PensionCompany)
	check("pensionNo", f.PensionNo)
	check("pensionCompanyAddress", f.PensionCompanyAddress)
	check("accountNo", f.AccountNo)
	check("address", f.Address)
	check("dob", f.DOB)
	check("mortgageBank", f.MortgageBank)
	check("mortgageBankAddress", f.MortgageBankAddress)
	return missing
}

type uploadedDocument struct {
	Name           string `json:"name"`
	Data           string `json:"data"`
	SplitIntoPages bool   `json:"splitIntoPages"`
}

type splitPagePayload struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	PageNumber       int    `json:"pageNumber"`
	OriginalFileName string `json:"originalFileName"`
	PreviewData      string `json:"previewData"`
}

type customOrderRequest struct {
	applicantFields
	DocumentOrder     []pipeline.OrderItem `json:"documentOrder"`
	UploadedDocuments []uploadedDocument   `json:"uploadedDocuments"`
	SplitPages        []splitPagePayload   `json:"splitPages"`
}

// GenerateDocuments handles POST /api/generate-documents.
func (h *Handler) GenerateDocuments(c *gin.Context) {
	var req applicantFields
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if missing := req.missingFields(); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "missingFields": missing})
		return
	}
	h.run(c, req, nil, nil, nil)
}

// GenerateDocumentsWithCustomOrder handles
// POST /api/generate-documents-with-custom-order.
func (h *Handler) GenerateDocumentsWithCustomOrder(c *gin.Context) {
	var req customOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if missing := req.missingFields(); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "missingFields": missing})
		return
	}

	uploads := make([]pipeline.Upload, 0, len(req.UploadedDocuments))
	for _, up := range req.UploadedDocuments {
		data, err := decodeBase64(up.Data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid upload data for %s", up.Name)})
			return
		}
		uploads = append(uploads, pipeline.Upload{
			Name:           up.Name,
			Data:           data,
			SplitIntoPages: up.SplitIntoPages,
		})
	}

	pages := make([]pipeline.SplitPage, 0, len(req.SplitPages))
	for _, sp := range req.SplitPages {
		data, err := decodeBase64(sp.PreviewData)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid page data for %s", sp.Name)})
			return
		}
		pages = append(pages, pipeline.SplitPage{
			ID:               sp.ID,
			Name:             sp.Name,
			PageNumber:       sp.PageNumber,
			OriginalFileName: sp.OriginalFileName,
			Data:             data,
		})
	}

	h.run(c, req.applicantFields, req.DocumentOrder, uploads, pages)
}

// run queues the job, executes the pipeline, and streams the merged PDF.
func (h *Handler) run(c *gin.Context, fields applicantFields,
	order []pipeline.OrderItem, uploads []pipeline.Upload, pages []pipeline.SplitPage) {

	req := pipeline.Request{
		MortgageBank: fields.MortgageBank,
		Values: placeholders.Build(placeholders.Input{
			Name:                  fields.Name,
			PensionCompany:        fields.PensionCompany,
			PensionNo:             fields.PensionNo,
			PensionCompanyAddress: fields.PensionCompanyAddress,
			AccountNo:             fields.AccountNo,
			Address:               fields.Address,
			DOB:                   fields.DOB,
			MortgageBank:          fields.MortgageBank,
			MortgageBankAddress:   fields.MortgageBankAddress,
			ContributionValue:     fields.CV,
			PolicyNo:              h.ledgers.Next(ledger.Main),
			KBLPolicyNo:           h.ledgers.Next(ledger.KBL),
			NSIAPolicyNo:          h.ledgers.Next(ledger.NSIA),
			Now:                   time.Now(),
		}),
		Order:      order,
		Uploads:    uploads,
		SplitPages: pages,
	}

	var merged []byte
	err := h.governor.Do(c.Request.Context(), func() error {
		var runErr error
		merged, runErr = h.pipeline.Run(c.Request.Context(), req)
		return runErr
	})
	if err != nil {
		h.log.Error("document generation failed", "bank", fields.MortgageBank, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Document generation failed"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="mortgage_documents.pdf"`)
	c.Data(http.StatusOK, "application/pdf", merged)
}

type splitRequest struct {
	PDFData  string `json:"pdfData"`
	FileName string `json:"fileName"`
}

// SplitPDF handles POST /api/split-pdf: splits an uploaded PDF and returns
// per-page previews the client can reorder.
func (h *Handler) SplitPDF(c *gin.Context) {
	var req splitRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PDFData == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pdfData is required"})
		return
	}
	data, err := decodeBase64(req.PDFData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid PDF data"})
		return
	}
	name := req.FileName
	if name == "" {
		name = "document.pdf"
	}

	workDir := filepath.Join(h.tempDir, uuid.NewString())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare workspace"})
		return
	}
	defer os.RemoveAll(workDir)

	pdfPath := filepath.Join(workDir, filepath.Base(name))
	if err := os.WriteFile(pdfPath, data, 0o644); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save PDF"})
		return
	}

	pages, err := h.converter.Split(c.Request.Context(), pdfPath, workDir)
	if err != nil {
		h.log.Error("pdf split failed", "file", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to split PDF"})
		return
	}

	type pageInfo struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		PageNumber  int    `json:"pageNumber"`
		PreviewData string `json:"previewData"`
		Size        int    `json:"size"`
	}
	out := make([]pageInfo, len(pages))
	for i, pg := range pages {
		out[i] = pageInfo{
			ID:          uuid.NewString(),
			Name:        pg.Name,
			PageNumber:  pg.Number,
			PreviewData: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pg.Data),
			Size:        len(pg.Data),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"originalFileName": name,
		"totalPages":       len(pages),
		"pages":            out,
	})
}

// decodeBase64 accepts both raw base64 and data-URI payloads.
func decodeBase64(s string) ([]byte, error) {
	if idx := strings.Index(s, ";base64,"); idx != -1 {
		s = s[idx+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(s)
}
