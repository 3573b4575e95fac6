// Package nlog is the runtime's logging façade: same call shape as
// aistore's cmn/nlog (Infoln, Infof, Errorln, Errorf) backed by
// github.com/sirupsen/logrus instead of re-deriving custom log rotation.
package nlog

import (
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

func init() {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func SetLevel(level logrus.Level) { log.SetLevel(level) }

func Infoln(args ...interface{})            { log.Infoln(args...) }
func Infof(format string, args ...interface{}) { log.Infof(format, args...) }
func Errorln(args ...interface{})           { log.Errorln(args...) }
func Errorf(format string, args ...interface{}) { log.Errorf(format, args...) }
func Warningln(args ...interface{})         { log.Warnln(args...) }
func Warningf(format string, args ...interface{}) { log.Warnf(format, args...) }
