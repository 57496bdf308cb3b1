package main

import (
	"github.com/gin-gonic/gin"
	"github.com/penglongli/gin-metrics/ginmetrics"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/husmen/anomalib/pkg/config"
	apiV1 "github.com/husmen/anomalib/pkg/dataset-server/api/v1"
	"github.com/husmen/anomalib/pkg/dataset-server/hdlr"
)

type DatasetServer struct {
	engine *gin.Engine
	addr   string
}

func NewDatasetServer(configFile, addr string) *DatasetServer {
	var conf config.Config
	log.Debugf("start to read config file: %s", configFile)
	if err := config.LoadFromYAMLFile(configFile, &conf); err != nil {
		log.WithError(err).Error("failed to load server config")
		return nil
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	metrics := ginmetrics.GetMonitor()
	metrics.SetMetricPath("/metrics")
	metrics.Use(engine)

	mgr := hdlr.NewMgr(afero.NewOsFs(), &conf)
	for _, route := range apiV1.Routes(mgr) {
		engine.Handle(route.Method, route.Pattern, route.HandlerFunc)
	}

	return &DatasetServer{engine: engine, addr: addr}
}

func (s *DatasetServer) Run() {
	log.Infof("dataset apiserver listening on %s", s.addr)
	if err := s.engine.Run(s.addr); err != nil {
		log.WithError(err).Fatal("dataset apiserver exited")
	}
}
