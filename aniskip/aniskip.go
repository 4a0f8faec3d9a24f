// Package aniskip fetches opening and ending timestamps from the AniSkip API.
package aniskip

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/network"
	"github.com/nezuko-cli/nezuko/source"
)

// BaseURL is the skip-times endpoint. Tests point it at a local server.
var BaseURL = "https://api.aniskip.com/v1/skip-times"

// SkipTimes holds the known skippable ranges of one episode.
type SkipTimes struct {
	Opening *source.Interval `json:"opening,omitempty"`
	Ending  *source.Interval `json:"ending,omitempty"`
}

type apiResponse struct {
	Found   bool `json:"found"`
	Results []struct {
		Interval struct {
			StartTime float64 `json:"start_time"`
			EndTime   float64 `json:"end_time"`
		} `json:"interval"`
		SkipType string `json:"skip_type"`
	} `json:"results"`
}

// GetSkipTimes looks up an episode by MyAnimeList id. Nil without an error
// means AniSkip knows nothing about it. The service is optional, so a 404
// or a transport failure also yields nil.
func GetSkipTimes(ctx context.Context, client network.Doer, malID, episode int) (*SkipTimes, error) {
	if malID <= 0 || episode <= 0 {
		return nil, nil
	}

	url := fmt.Sprintf("%s/%d/%d?types=op&types=ed", BaseURL, malID, episode)

	var data apiResponse
	err := network.GetJSON(ctx, client, url, http.Header{"User-Agent": {constant.UserAgent}}, &data)

	var status *network.StatusError
	switch {
	case errors.As(err, &status):
		if status.Status != http.StatusNotFound {
			log.Warnf("aniskip returned status %d", status.Status)
		}
		return nil, nil
	case err != nil && ctx.Err() == nil:
		log.Warnf("aniskip request failed: %v", err)
		return nil, nil
	case err != nil:
		return nil, ctx.Err()
	}

	if !data.Found || len(data.Results) == 0 {
		return nil, nil
	}

	times := &SkipTimes{}
	for _, result := range data.Results {
		interval := &source.Interval{Start: result.Interval.StartTime, End: result.Interval.EndTime}
		if !interval.Valid() {
			continue
		}
		switch result.SkipType {
		case "op":
			times.Opening = interval
		case "ed":
			times.Ending = interval
		}
	}

	if times.Opening == nil && times.Ending == nil {
		return nil, nil
	}

	return times, nil
}
