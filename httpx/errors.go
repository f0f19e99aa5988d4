package httpx

import (
	"fmt"
	"net/http"

	"github.com/mbolis/field-survey/apiclient"
	"github.com/mbolis/field-survey/log"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+": ", errMsg)
	http.Error(w, errMsg, status)
}

// Will log a failed backend call, and send an HTTP response carrying the
// operator message. A 401 from the backend is passed through, anything else
// is a 502.
func LogUpstreamError(w http.ResponseWriter, code string, err error) {
	status := http.StatusBadGateway
	level := log.WarnLevel
	if apiclient.IsUnauthorized(err) {
		status = http.StatusUnauthorized
		level = log.DebugLevel
	}
	log.Log(level, code+": ", err)
	http.Error(w, apiclient.UserMessage(err), status)
}
