package mqttpub

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "mqttpub")
