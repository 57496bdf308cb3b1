package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/husmen/anomalib/pkg/callbacks"
	"github.com/husmen/anomalib/pkg/config"
	"github.com/husmen/anomalib/pkg/mvtec"
	"github.com/husmen/anomalib/pkg/trainer"
)

var (
	flagConf  = flag.String("conf", "./conf.yaml", "app config file")
	flagDebug = flag.Bool("debug", false, "enable debug logging")
)

// externalModule stands in for the model driven by the external execution
// engine; the toolkit only needs its name and weight loading.
type externalModule struct {
	name string
}

func (m *externalModule) Name() string { return m.name }

func (m *externalModule) LoadWeights(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("weight file %s: %w", path, err)
	}
	return nil
}

func main() {
	flag.Parse()
	initLog()

	var conf config.Config
	if err := config.LoadFromYAMLFile(*flagConf, &conf); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	conf.DumpYAML()

	dm := mvtec.NewDataModule(afero.NewOsFs(), &conf)
	if err := dm.PrepareData(); err != nil {
		log.WithError(err).Fatal("failed to prepare dataset")
	}
	if err := dm.Setup("fit"); err != nil {
		log.WithError(err).Fatal("failed to set up dataset")
	}
	log.Infof("indexed %d train and %d test samples for category %s",
		dm.TrainData().Len(), dm.ValData().Len(), conf.Dataset.Category)

	cbs, err := callbacks.Build(&conf)
	if err != nil {
		log.WithError(err).Fatal("failed to assemble callbacks")
	}
	for _, cb := range cbs {
		log.Debugf("callback enabled: %s", cb.Name())
	}

	run := trainer.NewRun(&conf, &externalModule{name: conf.Model.Name})
	t := trainer.New(cbs)
	if err := t.Fit(run); err != nil {
		log.WithError(err).Fatal("training run failed")
	}
	if err := t.Test(run); err != nil {
		log.WithError(err).Fatal("test run failed")
	}
	log.Infof("run %s finished", run.ID)
}

func initLog() {
	if *flagDebug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
