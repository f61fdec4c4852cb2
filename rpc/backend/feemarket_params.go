package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"

	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

// DefaultParamsPath is the REST route of the fee market params.
const DefaultParamsPath = "/cosmos/evm/feemarket/v1/params"

// maxParamsResponseSize bounds the body read from the REST endpoint.
const maxParamsResponseSize = 1 << 20

// ParamsSource reads the fee market params the chain is running with.
type ParamsSource interface {
	Params(ctx context.Context) (feemarkettypes.Params, error)
	String() string
}

var (
	_ ParamsSource = (*RESTParamsSource)(nil)
	_ ParamsSource = (*CommandParamsSource)(nil)
	_ ParamsSource = StaticParamsSource{}
)

// RESTParamsSource queries the params over the Cosmos REST API.
type RESTParamsSource struct {
	endpoint string
	path     string
	client   *http.Client
}

// NewRESTParamsSource returns a source querying {endpoint}{path}, the default route if path is empty.
func NewRESTParamsSource(endpoint, path string) *RESTParamsSource {
	if path == "" {
		path = DefaultParamsPath
	}
	return &RESTParamsSource{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		path:     "/" + strings.TrimPrefix(path, "/"),
		client:   cleanhttp.DefaultPooledClient(),
	}
}

func (s *RESTParamsSource) Params(ctx context.Context) (feemarkettypes.Params, error) {
	url := s.endpoint + s.path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return feemarkettypes.Params{}, errors.Wrap(err, "failed to build params request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return feemarkettypes.Params{}, errors.Wrapf(err, "failed to query %s", url)
	}
	defer resp.Body.Close()

	bz, err := io.ReadAll(io.LimitReader(resp.Body, maxParamsResponseSize))
	if err != nil {
		return feemarkettypes.Params{}, errors.Wrapf(err, "failed to read response of %s", url)
	}

	if resp.StatusCode != http.StatusOK {
		return feemarkettypes.Params{}, fmt.Errorf("query %s: unexpected status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(bz)))
	}

	return feemarkettypes.ParseParamsJSON(bz)
}

func (s *RESTParamsSource) String() string {
	return "rest:" + s.endpoint + s.path
}

// CommandParamsSource queries the params through the chain binary.
type CommandParamsSource struct {
	binary string
	node   string
}

// NewCommandParamsSource returns a source running `<binary> query feemarket params --output json --node <node>`.
func NewCommandParamsSource(binary, node string) *CommandParamsSource {
	return &CommandParamsSource{
		binary: binary,
		node:   node,
	}
}

// Args returns the arguments passed to the binary.
func (s *CommandParamsSource) Args() []string {
	args := []string{"query", feemarkettypes.ModuleName, "params", "--output", "json"}
	if s.node != "" {
		args = append(args, "--node", s.node)
	}
	return args
}

func (s *CommandParamsSource) Params(ctx context.Context) (feemarkettypes.Params, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, s.binary, s.Args()...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return feemarkettypes.Params{}, errors.Wrapf(err, "%s: %s", s, strings.TrimSpace(stderr.String()))
	}

	return feemarkettypes.ParseParamsJSON(stdout.Bytes())
}

func (s *CommandParamsSource) String() string {
	return s.binary + " " + strings.Join(s.Args(), " ")
}

// StaticParamsSource always returns the same params.
type StaticParamsSource struct {
	params feemarkettypes.Params
}

// NewStaticParamsSource returns a source of fixed params, validated upfront.
func NewStaticParamsSource(params feemarkettypes.Params) (StaticParamsSource, error) {
	if err := params.Validate(); err != nil {
		return StaticParamsSource{}, errors.Wrap(feemarkettypes.ErrInvalidParams, err.Error())
	}
	return StaticParamsSource{params: params}, nil
}

func (s StaticParamsSource) Params(_ context.Context) (feemarkettypes.Params, error) {
	return s.params, nil
}

func (s StaticParamsSource) String() string {
	return "static"
}
