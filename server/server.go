// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the geocoding pipeline as a JSON and CSV API for
// interactive review.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jcodagnone/itur/address"
	"github.com/jcodagnone/itur/pipeline"
	"github.com/jcodagnone/itur/review"
	"github.com/jcodagnone/itur/tabular"
)

const (
	// DefaultAddr is where Run listens unless told otherwise.
	DefaultAddr = "localhost:8080"

	// ResultFilename names downloaded results.
	ResultFilename = "addresses_with_coordinates"

	shutdownTimeout = 5 * time.Second
)

// utf8BOM prefixes CSV downloads so spreadsheet programs detect the encoding.
var utf8BOM = []byte("\ufeff")

// Config configures the API.
type Config struct {
	// CORSOrigins enables cross-origin requests from these origins.
	CORSOrigins []string
	// Review holds the defaults of GET /api/review.
	Review review.Options
}

// session is the last batch together with the table it came from.
type session struct {
	ID    uuid.UUID
	Table *tabular.Table
	Batch *pipeline.Batch
}

// Server serves one pipeline. Runs are serialised and the last one is kept
// for export, verification and review.
type Server struct {
	pipeline *pipeline.Pipeline
	cfg      Config

	run  sync.Mutex
	last atomic.Pointer[session]
}

// New returns a Server geocoding through locator.
func New(locator pipeline.Locator, cfg Config) *Server {
	return &Server{
		pipeline: pipeline.New(locator),
		cfg:      cfg,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.cfg.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.POST("/api/geocode", s.geocodeUpload)
	r.POST("/api/batch", s.runBatch)
	r.GET("/api/batch", s.getBatch)
	r.GET("/api/batch.csv", s.exportBatch)
	r.GET("/api/sample", s.sample)
	r.GET("/api/variants", s.variants)
	r.POST("/api/verify", s.verify)
	r.GET("/api/review", s.review)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("🌐 Listening on http://%s", addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}

		log.Println("🛑 Server stopped")

		return nil
	})

	return g.Wait()
}

// geocode runs t through the pipeline and records it as the last session.
func (s *Server) geocode(ctx context.Context, t *tabular.Table) (*session, error) {
	s.run.Lock()
	defer s.run.Unlock()

	b, err := s.pipeline.Run(ctx, t.Addresses(), func(p pipeline.Progress) {
		log.Printf("[%d/%d] %s: %s", p.Current, p.Total, p.Row.Outcome.Status, p.Row.Address)
	})
	if b == nil {
		return nil, err
	}

	sess := &session{ID: uuid.New(), Table: t, Batch: b}
	s.last.Store(sess)

	return sess, err
}

func badRequest(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) geocodeUpload(ctx *gin.Context) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		badRequest(ctx, fmt.Errorf("file is required: %w", err))

		return
	}

	delimiter, err := tabular.ParseDelimiter(ctx.PostForm("delimiter"))
	if err != nil {
		badRequest(ctx, err)

		return
	}

	header, err := tabular.ParseHeaderMode(ctx.PostForm("header"))
	if err != nil {
		badRequest(ctx, err)

		return
	}

	f, err := fh.Open()
	if err != nil {
		badRequest(ctx, fmt.Errorf("opening upload: %w", err))

		return
	}
	defer f.Close()

	opts := tabular.ReadOptions{
		AddressColumn: ctx.PostForm("address_column"),
		Delimiter:     delimiter,
		Header:        header,
	}

	var t *tabular.Table
	if tabular.IsSpreadsheet(fh.Filename) {
		t, err = tabular.ReadXLSX(f, opts)
	} else {
		t, err = tabular.Read(f, opts)
	}

	if err != nil {
		badRequest(ctx, err)

		return
	}

	if len(t.Rows) == 0 {
		badRequest(ctx, errors.New("the upload has no data rows"))

		return
	}

	sess, err := s.geocode(ctx.Request.Context(), t)
	if err != nil {
		log.Printf("⚠️ Geocoding %s interrupted: %v", fh.Filename, err)
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

		return
	}

	wopts := tabular.WriteOptions{IncludeStatus: ctx.PostForm("status") == "true"}
	ctx.Header("X-Batch-ID", sess.ID.String())

	if ctx.PostForm("format") == "xlsx" {
		s.sendXLSX(ctx, sess, wopts)

		return
	}

	s.sendCSV(ctx, sess, wopts)
}

func (s *Server) sendCSV(ctx *gin.Context, sess *session, opts tabular.WriteOptions) {
	buf := bytes.NewBuffer(append([]byte(nil), utf8BOM...))
	if err := tabular.Write(buf, sess.Table, sess.Batch, opts); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, ResultFilename))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) sendXLSX(ctx *gin.Context, sess *session, opts tabular.WriteOptions) {
	var buf bytes.Buffer
	if err := tabular.WriteXLSX(&buf, sess.Table, sess.Batch, opts); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, ResultFilename))
	ctx.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// BatchRequest is a pasted address list. Text holds one address per line and
// is appended to Addresses.
type BatchRequest struct {
	Addresses []string `json:"addresses"`
	Text      string   `json:"text"`
}

func (r BatchRequest) lines() []string {
	var out []string

	for _, a := range append(r.Addresses, strings.Split(r.Text, "\n")...) {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}

	return out
}

// BatchResponse is a batch with its identifier.
type BatchResponse struct {
	ID       string `json:"id"`
	Complete bool   `json:"complete"`
	*pipeline.Batch
}

func newBatchResponse(sess *session) BatchResponse {
	return BatchResponse{ID: sess.ID.String(), Complete: sess.Batch.Complete(), Batch: sess.Batch}
}

func (s *Server) runBatch(ctx *gin.Context) {
	var req BatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)

		return
	}

	addrs := req.lines()
	if len(addrs) == 0 {
		badRequest(ctx, errors.New("no addresses given"))

		return
	}

	sess, err := s.geocode(ctx.Request.Context(), tabular.FromAddresses(addrs))
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, newBatchResponse(sess))
}

// lastSession writes a 404 and returns nil before the first run.
func (s *Server) lastSession(ctx *gin.Context) *session {
	sess := s.last.Load()
	if sess == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": pipeline.ErrNoBatch.Error()})
	}

	return sess
}

func (s *Server) getBatch(ctx *gin.Context) {
	if sess := s.lastSession(ctx); sess != nil {
		ctx.JSON(http.StatusOK, newBatchResponse(sess))
	}
}

func (s *Server) exportBatch(ctx *gin.Context) {
	if sess := s.lastSession(ctx); sess != nil {
		s.sendCSV(ctx, sess, tabular.WriteOptions{IncludeStatus: true})
	}
}

func (s *Server) sample(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"addresses": SampleAddresses})
}

func (s *Server) variants(ctx *gin.Context) {
	addr := ctx.Query("address")
	if strings.TrimSpace(addr) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "address query parameter is required"})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"address": addr, "variants": address.Variants(addr)})
}

// VerifyRequest asks to geocode Variant and compare it with row Row.
type VerifyRequest struct {
	Row     int    `json:"row"`
	Variant string `json:"variant"`
}

func (s *Server) verify(ctx *gin.Context) {
	var req VerifyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)

		return
	}

	if strings.TrimSpace(req.Variant) == "" {
		badRequest(ctx, errors.New("variant is required"))

		return
	}

	v, err := s.pipeline.Verify(ctx.Request.Context(), req.Row, req.Variant)
	switch {
	case errors.Is(err, pipeline.ErrNoBatch):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		badRequest(ctx, err)
	default:
		ctx.JSON(http.StatusOK, v)
	}
}

// reviewOptions overrides the configured defaults with query parameters.
func (s *Server) reviewOptions(ctx *gin.Context) (review.Options, error) {
	opts := s.cfg.Review

	if v := ctx.Query("resolution"); v != "" {
		res, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("invalid resolution %q", v)
		}

		opts.Resolution = res
	}

	if v := ctx.Query("radius"); v != "" {
		radius, err := strconv.ParseFloat(v, 64)
		if err != nil || radius < 0 {
			return opts, fmt.Errorf("invalid radius %q", v)
		}

		opts.Radius = radius
	}

	if v := ctx.Query("routes"); v != "" {
		routes, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid routes %q", v)
		}

		opts.Routes = routes
	}

	return opts, nil
}

func (s *Server) review(ctx *gin.Context) {
	opts, err := s.reviewOptions(ctx)
	if err != nil {
		badRequest(ctx, err)

		return
	}

	sess := s.lastSession(ctx)
	if sess == nil {
		return
	}

	r, err := review.Build(sess.Batch, opts)
	if err != nil {
		badRequest(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, r)
}
