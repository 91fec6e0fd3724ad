/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"k8s.io/klog/v2"

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
	"github.com/labforge/homeops/worker/pkg/janitor"
	"github.com/labforge/homeops/worker/pkg/runtime"
)

type Server struct {
	opts     *options.Options
	cfg      *commonconfig.Config
	store    *client.Client
	queue    *queue.Client
	bus      *pubsub.Bus
	runtime  *runtime.Runtime
	janitor  *janitor.Janitor
	ctx      context.Context
	stop     context.CancelFunc
	isInited bool
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
// store, queue, bus, workflow engine, runtime and janitor.
func (s *Server) init() error {
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
	if err = trace.InitTracer("homeops-worker", &s.cfg.Tracing); err != nil {
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
	cipher, err := crypto.NewCrypto(s.cfg.Vault.Key)
	if err != nil {
		klog.ErrorS(err, "failed to init vault cipher")
		return err
	}
	registry := executors.NewRegistry(executors.NewAnsibleExecutor(&s.cfg.Ansible, s.queue))
	engine := workflow.NewEngine(s.store, registry, cipher)
	s.runtime = runtime.New(s.cfg, s.store, s.queue, s.bus, engine)
	if s.janitor, err = janitor.New(&s.cfg.Janitor, s.store, s.queue, s.bus, engine); err != nil {
		klog.ErrorS(err, "failed to init janitor")
		return err
	}
	s.isInited = true
	return nil
}

// Start launches the worker slots and the janitor, then blocks until a
// shutdown signal arrives and calls Stop.
func (s *Server) Start() {
	if !s.isInited {
		klog.Errorf("please init worker first")
		return
	}
	klog.Infof("starting worker with %d slots", s.cfg.Worker.Slots)
	s.runtime.Start()
	s.janitor.Start()

	<-s.ctx.Done()
	s.Stop()
}

// Stop drains the worker slots, halts the janitor and closes the shared
// connections. Slots finish their in-flight job before returning.
func (s *Server) Stop() {
	klog.Info("shutting down worker...")
	s.runtime.Stop()
	s.janitor.Stop()
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
	klog.Info("worker is stopped")
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
