package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"epf/internal/errs"
	"epf/internal/queue"
	"epf/internal/session"
	"epf/internal/transport"
)

// failureBackoff is the fixed sleep after any failed exchange, independent
// of the configured heartbeat period.
const failureBackoff = 15 * time.Second

// Downloader keeps the ingress queue topped up with verified random bytes
// and migrates them to the egress queue under the shared mutex.
type Downloader struct {
	shared  *Shared
	backoff time.Duration
}

// NewDownloader builds the downloader loop over the shared state.
func NewDownloader(s *Shared) *Downloader {
	return &Downloader{shared: s, backoff: failureBackoff}
}

// Run executes the download loop until the error flag is set or ctx is
// cancelled.
func (d *Downloader) Run(ctx context.Context) {
	cfg := d.shared.Cfg
	resource := cfg.Resource + strconv.Itoa(cfg.RequestBytes)
	buf := make([]byte, cfg.RequestBytes)

	for !d.shared.Failed() && ctx.Err() == nil {
		d.step(ctx, resource, buf)
		sleep(ctx, cfg.DownloadPeriod)
	}
}

// step is one heartbeat: download if ingress is below the watermark, then
// migrate ingress to egress if egress is below its watermark.
func (d *Downloader) step(ctx context.Context, resource string, buf []byte) {
	cfg := d.shared.Cfg

	if d.shared.ingress.Len() < cfg.MaxQueueBytes/2 {
		corr := uuid.NewString()[:8]
		if err := d.downloadOnce(resource, buf); err != nil {
			d.shared.Log.Error("exchange "+corr, err)
			if errs.Fatal(err) {
				d.shared.Fail()
				return
			}
			sleep(ctx, d.backoff)
		} else {
			d.shared.ingress.Append(buf)
		}
	}

	d.shared.withEgress(func(egress *queue.Queue) {
		if egress.Len() < cfg.MaxQueueBytes/2 {
			d.shared.ingress.DrainTo(egress)
		}
	})
}

// downloadOnce drives one full exchange: connect, fresh session token,
// request, verified read into buf. Any failure aborts just this exchange.
func (d *Downloader) downloadOnce(resource string, buf []byte) error {
	cfg := d.shared.Cfg

	ex := transport.New(cfg.Host, cfg.Port, cfg.SSLEnabled, cfg.AuthToken, cfg.StreamEncrypted, d.shared.Pub)
	defer ex.Close()

	if err := ex.Dial(); err != nil {
		return err
	}

	var tok *session.Token
	if cfg.StreamEncrypted {
		var err error
		if tok, err = session.New(d.shared.Pub); err != nil {
			return err
		}
	}

	if err := ex.SendGet(resource, tok); err != nil {
		return err
	}
	resp, err := ex.RetrieveResponse(tok)
	if err != nil {
		return err
	}
	if code := resp.StatusCode(); code != 200 {
		return errs.HTTPStatus(code)
	}
	return resp.ReadContent(buf)
}
