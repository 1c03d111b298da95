package roadnet

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "roadnet")
