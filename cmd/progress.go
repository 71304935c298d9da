package cmd

import (
	"fmt"

	"github.com/vbauerster/mpb/v8"
	cmdCommon "github.com/tagwatch/tagwatch/cmd/common"
	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
)

func priceUpdated(bar *mpb.Bar, single bool, client *trackcli.Client) func(*common.RefreshingResponse) error {
	return func(rr *common.RefreshingResponse) error {
		if rr.OldPrice.IsZero() {
			fmt.Printf("%s: first price %s\n", rr.ProductId, rr.Price.Format(rr.Currency))
		} else {
			fmt.Printf("%s: %s -> %s\n", rr.ProductId,
				rr.OldPrice.Format(rr.Currency), rr.Price.Format(rr.Currency))
		}
		bar.Increment()
		if single {
			client.Disconnect()
		}
		return nil
	}
}

func priceUnchanged(bar *mpb.Bar, single bool, client *trackcli.Client) func(*common.RefreshingResponse) error {
	return func(rr *common.RefreshingResponse) error {
		bar.Increment()
		if single {
			client.Disconnect()
		}
		return nil
	}
}

func priceError(bar *mpb.Bar, single bool, client *trackcli.Client) func(*common.RefreshingResponse) error {
	return func(rr *common.RefreshingResponse) error {
		fmt.Printf("%s: error: %s\n", rr.ProductId, rr.Error)
		bar.Increment()
		if single {
			client.Disconnect()
		}
		return nil
	}
}

func alertFired(rr *common.RefreshingResponse) error {
	fmt.Printf("\a%s: ALERT %s -> %s\n", rr.ProductId,
		rr.OldPrice.Format(rr.Currency), rr.Price.Format(rr.Currency))
	return nil
}

func refreshComplete(bar *mpb.Bar, client *trackcli.Client) func(*common.RefreshingResponse) error {
	return func(rr *common.RefreshingResponse) error {
		bar.SetTotal(-1, true)
		client.Disconnect()
		return nil
	}
}

func refreshStopped(bar *mpb.Bar, client *trackcli.Client) func(*common.RefreshingResponse) error {
	return func(rr *common.RefreshingResponse) error {
		bar.Abort(false)
		client.Disconnect()
		return nil
	}
}

// registerRefreshHandlers wires the refresh update stream into a
// progress bar. productId selects the subscription the caller made;
// the reserved "*" key follows a whole cycle, which terminates on
// RefreshComplete instead of the product's own terminal action.
func registerRefreshHandlers(client *trackcli.Client, productId string, total int64) {
	single := productId != trackcli.AllProducts
	p := mpb.New(mpb.WithWidth(64))
	bar := cmdCommon.InitBar(p, "", total)
	client.AddHandler(
		common.UPDATE_REFRESHING,
		trackcli.NewRefreshingHandler(common.PriceUpdated, priceUpdated(bar, single, client)),
	)
	client.AddHandler(
		common.UPDATE_REFRESHING,
		trackcli.NewRefreshingHandler(common.PriceUnchanged, priceUnchanged(bar, single, client)),
	)
	client.AddHandler(
		common.UPDATE_REFRESHING,
		trackcli.NewRefreshingHandler(common.PriceError, priceError(bar, single, client)),
	)
	client.AddHandler(
		common.UPDATE_REFRESHING,
		trackcli.NewRefreshingHandler(common.AlertFired, alertFired),
	)
	client.AddHandler(
		common.UPDATE_REFRESHING,
		trackcli.NewRefreshingHandler(common.RefreshComplete, refreshComplete(bar, client)),
	)
	client.AddHandler(
		common.UPDATE_REFRESHING,
		trackcli.NewRefreshingHandler(common.RefreshStopped, refreshStopped(bar, client)),
	)
}
