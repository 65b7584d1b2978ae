package usecase

// Metrics receives manager outcomes. platform/metrics provides the Prometheus
// implementation; managers default to a no-op.
type Metrics interface {
	AssetOperation(op, result string)
	AssetStoreFailure(stage string)
	AssetLoadSource(source string)
	AssetUploadBytes(n int)
	AuthAttempt(op, result string)
	CartMutation(op string)
}

const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultCancelled = "cancelled"
	ResultBusy      = "busy"
)

type nopMetrics struct{}

func (nopMetrics) AssetOperation(string, string) {}
func (nopMetrics) AssetStoreFailure(string)      {}
func (nopMetrics) AssetLoadSource(string)        {}
func (nopMetrics) AssetUploadBytes(int)          {}
func (nopMetrics) AuthAttempt(string, string)    {}
func (nopMetrics) CartMutation(string)           {}

func orNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

func resultOf(err error) string {
	if err == nil {
		return ResultOK
	}
	return ResultError
}
