package inbound

import (
	"github.com/YessineAmor/stampd/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/ledger/stamps", end.Stamp)
	r.GET("/api/v1/ledger/stamps", end.StampList)
	r.GET("/api/v1/ledger/stamps/:file_hash", end.GetStamp)
	r.POST("/api/v1/ledger/stamps/verify", end.VerifyStamp)
	r.POST("/api/v1/ledger/stamps-export", end.StampExport)
}
