package wsstream

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "wsstream")
