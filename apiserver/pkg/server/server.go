/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/labforge/homeops/apiserver/pkg/handlers"
	"github.com/labforge/homeops/apiserver/pkg/handlers/middleware"
	commonconfig "github.com/labforge/homeops/common/pkg/config"
	"github.com/labforge/homeops/common/pkg/crypto"
	"github.com/labforge/homeops/common/pkg/database/client"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
	"github.com/labforge/homeops/common/pkg/executors"
	commonklog "github.com/labforge/homeops/common/pkg/klog"
	"github.com/labforge/homeops/common/pkg/options"
	"github.com/labforge/homeops/common/pkg/pubsub"
	"github.com/labforge/homeops/common/pkg/queue"
	"github.com/labforge/homeops/common/pkg/trace"
	"github.com/labforge/homeops/common/pkg/workflow"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	opts       *options.Options
	cfg        *commonconfig.Config
	store      *client.Client
	queue      *queue.Client
	bus        *pubsub.Bus
	registry   *executors.Registry
	engine     *workflow.Engine
	cipher     *crypto.Crypto
	auditor    *middleware.Auditor
	httpServer *http.Server
	ctx        context.Context
	stop       context.CancelFunc
	isInited   bool
}

// NewServer creates and returns a new Server instance.
func NewServer() (*Server, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	s := &Server{
		opts: &options.Options{},
		ctx:  ctx,
		stop: stop,
	}
	if err := s.init(); err != nil {
		stop()
		return nil, err
	}
	return s, nil
}

// init performs the initial setup of the server including flag parsing,
// logging initialization, configuration loading, and the wiring of the
// store, queue, bus, cipher, executor registry and workflow engine.
func (s *Server) init() error {
	gin.SetMode(gin.ReleaseMode)
	var err error
	if err = s.opts.InitFlags(); err != nil {
		klog.ErrorS(err, "failed to parse flags")
		return err
	}
	if err = commonklog.Init(s.opts.LogfilePath, s.opts.LogFileSize); err != nil {
		klog.ErrorS(err, "failed to init logs")
		return err
	}
	if err = s.initConfig(); err != nil {
		klog.ErrorS(err, "failed to init config")
		return err
	}
	if err = trace.InitTracer("homeops-apiserver", &s.cfg.Tracing); err != nil {
		// Degrade to no tracing rather than blocking startup.
		klog.Warningf("Failed to init tracer: %v", err)
	}
	if s.store, err = client.NewClient(dbutils.FromConfig(&s.cfg.DB)); err != nil {
		klog.ErrorS(err, "failed to init database client")
		return err
	}
	if s.queue, err = queue.NewClient(&s.cfg.Redis); err != nil {
		klog.ErrorS(err, "failed to init task queue")
		return err
	}
	if s.bus, err = pubsub.NewBus(&s.cfg.Redis); err != nil {
		klog.ErrorS(err, "failed to init log bus")
		return err
	}
	if s.cipher, err = crypto.NewCrypto(s.cfg.Vault.Key); err != nil {
		klog.ErrorS(err, "failed to init vault cipher")
		return err
	}
	s.registry = executors.NewRegistry(executors.NewAnsibleExecutor(&s.cfg.Ansible, s.queue))
	s.engine = workflow.NewEngine(s.store, s.registry, s.cipher)
	if s.cfg.Audit.Enable {
		s.auditor = middleware.NewAuditor(s.store)
	}
	s.isInited = true
	return nil
}

// Start launches the HTTP server, then blocks until a shutdown signal
// arrives and calls Stop.
func (s *Server) Start() {
	if !s.isInited {
		klog.Errorf("please init api-server first")
		return
	}
	gin.EnableJsonDecoderDisallowUnknownFields()

	klog.Infof("starting api-server")
	go func() {
		if err := s.startHttpServer(); err != nil {
			klog.ErrorS(err, "failed to start http-server")
			os.Exit(-1)
		}
	}()

	<-s.ctx.Done()
	s.Stop()
}

// Stop gracefully shuts down the HTTP server, drains the audit writer
// and closes the shared connections. The signal context is already
// cancelled here, so the drain runs on its own deadline.
func (s *Server) Stop() {
	klog.Info("shutting down http server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			klog.ErrorS(err, "failed to shutdown httpserver")
		}
	}
	if s.auditor != nil {
		s.auditor.Close()
	}
	if err := s.bus.Close(); err != nil {
		klog.ErrorS(err, "failed to close log bus")
	}
	if err := s.queue.Close(); err != nil {
		klog.ErrorS(err, "failed to close task queue")
	}
	s.store.Close()
	if err := trace.CloseTracer(); err != nil {
		klog.ErrorS(err, "failed to close tracer")
	}
	s.stop()
	klog.Info("apiserver is stopped")
	klog.Flush()
}

// initConfig loads the typed configuration from the path given by -config.
func (s *Server) initConfig() error {
	fullPath, err := filepath.Abs(s.opts.Config)
	if err != nil {
		return err
	}
	if s.cfg, err = commonconfig.New(fullPath); err != nil {
		return fmt.Errorf("config path: %s, err: %v", fullPath, err)
	}
	return nil
}

// startHttpServer builds the route table and listens on the configured
// port. A server closed by Stop is a clean exit.
func (s *Server) startHttpServer() error {
	if s.cfg.Server.Port <= 0 {
		return fmt.Errorf("the apiserver port is not defined")
	}
	handler := handlers.InitHttpHandlers(s.cfg, s.store, s.registry, s.engine, s.cipher,
		s.queue, s.bus, s.auditor)
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: handler}
	klog.Infof("http-server listen port: %d", s.cfg.Server.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		klog.ErrorS(err, "failed to start http server")
		return err
	}
	return nil
}
