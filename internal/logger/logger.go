// Package logger porte un *logrus.Entry par requête dans le context,
// avec un identifiant de requête et, après authentification, l'identité.
package logger

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKeyType struct{}

var contextKey = &contextKeyType{}

const (
	requestIDKey = "requestID"
	identityKey  = "identity"

	// RequestIDHeader est repris de la requête entrante s'il est présent, et renvoyé dans la réponse
	RequestIDHeader = "X-Request-ID"
)

// Init configure le format texte horodaté et le niveau global.
// Un niveau invalide retombe sur info.
func Init(level string) {
	formatter := new(logrus.TextFormatter)
	formatter.TimestampFormat = "2006-01-02 15:04:05"
	formatter.FullTimestamp = true
	logrus.SetFormatter(formatter)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithField("level", level).Warn("niveau de log invalide, info utilisé")
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// Default retourne un logger sans identifiant de requête
func Default() *logrus.Entry {
	return logrus.NewEntry(logrus.StandardLogger())
}

// Middleware attache un logger avec identifiant de requête au context de chaque requête
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := ContextWithRequestID(r.Context(), r.Header.Get(RequestIDHeader))
		w.Header().Set(RequestIDHeader, RequestID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContextWithRequestID retourne un context portant un logger.
// Si ctx en a déjà un, il est conservé; sinon id est utilisé, ou un UUID généré si id est vide.
func ContextWithRequestID(ctx context.Context, id string) (context.Context, *logrus.Entry) {
	if ctx == nil {
		ctx = context.Background()
	} else if rlog := fromContext(ctx); rlog != nil {
		return ctx, rlog
	}
	if id == "" {
		id = uuid.NewString()
	}
	rlog := logrus.WithField(requestIDKey, id)
	return context.WithValue(ctx, contextKey, rlog), rlog
}

// WithIdentity ajoute l'identité authentifiée au logger du context
func WithIdentity(ctx context.Context, identity string) (context.Context, *logrus.Entry) {
	ctx, rlog := ContextWithRequestID(ctx, "")
	rlog = rlog.WithField(identityKey, identity)
	return context.WithValue(ctx, contextKey, rlog), rlog
}

func fromContext(ctx context.Context) *logrus.Entry {
	rlog, _ := ctx.Value(contextKey).(*logrus.Entry)
	return rlog
}

// FromContext retourne le logger du context, ou le logger par défaut
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return Default()
	}
	if rlog := fromContext(ctx); rlog != nil {
		return rlog
	}
	return Default()
}

// RequestID retourne l'identifiant de requête du context ("" s'il n'y en a pas)
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	rlog := fromContext(ctx)
	if rlog == nil {
		return ""
	}
	id, _ := rlog.Data[requestIDKey].(string)
	return id
}
