package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	gopath "path"
	"strings"
	"time"

	"imgforge/internal/core/domain"
	"imgforge/internal/core/domain/modifier"
	"imgforge/internal/core/port"

	"github.com/rs/zerolog/log"
)

// ImageServer orchestrates one inbound request: signature check, path
// parsing, cache lookup, regeneration on miss and the no-image
// fallback. It answers bytes plus headers; delivering them is the
// transport's job.
type ImageServer struct {
	cfg        domain.ServerConfig
	link       domain.LinkConfig
	types      domain.TypeTable
	registry   *modifier.Registry
	codec      *modifier.Codec
	presets    *modifier.PresetTable
	persister  *Persister
	noImage    *NoImageResolver
	signer     port.Signer
	validators []Validator
}

func NewImageServer(cfg domain.ServerConfig, link domain.LinkConfig, types domain.TypeTable,
	registry *modifier.Registry, codec *modifier.Codec, presets *modifier.PresetTable,
	persister *Persister, noImage *NoImageResolver, signer port.Signer,
	validators []Validator) *ImageServer {
	return &ImageServer{
		cfg:        cfg,
		link:       link,
		types:      types,
		registry:   registry,
		codec:      codec,
		presets:    presets,
		persister:  persister,
		noImage:    noImage,
		signer:     signer,
		validators: validators,
	}
}

// Serve resolves a request URL to the response a transport should
// deliver.
func (s *ImageServer) Serve(ctx context.Context, rawURL string) (*domain.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, domain.WrapRequestError(domain.ErrPathFormat, "unparseable request url", err)
	}

	rel := strings.Trim(strings.TrimPrefix(u.Path, s.cfg.BasePath), "/")

	l := log.With().Str("path", rel).Logger()
	l.Debug().Msg("handling image request")

	if err := s.verifySignature(u, rel); err != nil {
		return nil, err
	}

	pi, err := s.ParsePath(rel)
	if err != nil {
		return nil, err
	}
	pi.Version = u.Query().Get(s.link.VersionParam)

	resp, err := s.produce(ctx, pi, true)
	if err != nil {
		l.Debug().Err(err).Msg("image request failed")
		return nil, err
	}

	l.Debug().Int("bytes", resp.ContentLength).Msg("image request served")
	return resp, nil
}

func (s *ImageServer) verifySignature(u *url.URL, rel string) error {
	if s.signer == nil {
		return nil
	}

	token := u.Query().Get(s.link.SignatureParam)
	if token == "" {
		return domain.NewRequestError(domain.ErrSignature, "Missing signature in request.")
	}
	if !s.signer.VerifyToken(token, rel) {
		return domain.NewRequestError(domain.ErrSignature, "Invalid signature in request.")
	}
	return nil
}

// ParsePath splits a base-path-stripped request path into a PathInfo.
// A modifier segment and a recognized file extension are mandatory;
// the modifier segment may precede or follow the namespace.
func (s *ImageServer) ParsePath(rel string) (domain.PathInfo, error) {
	segments := strings.Split(rel, "/")
	if len(segments) < 2 {
		return domain.PathInfo{}, domain.NewRequestError(domain.ErrPathFormat,
			fmt.Sprintf("path %q is missing a modifier segment", rel))
	}

	file := segments[len(segments)-1]
	dot := strings.LastIndex(file, ".")
	if dot <= 0 || dot == len(file)-1 {
		return domain.PathInfo{}, domain.NewRequestError(domain.ErrPathFormat,
			fmt.Sprintf("file %q is missing an extension", file))
	}
	name, ext := file[:dot], file[dot+1:]
	if !s.types.Supported(ext) {
		return domain.PathInfo{}, domain.NewRequestError(domain.ErrPathFormat,
			fmt.Sprintf("unsupported file extension %q", ext))
	}

	rest := segments[:len(segments)-1]

	candidates := []int{len(rest) - 1}
	if len(rest) > 1 {
		candidates = append(candidates, 0)
	}

	var decodeErr error
	for _, idx := range candidates {
		segment := rest[idx]

		if s.presets.Has(segment) {
			preset, err := s.presets.Get(segment)
			if err != nil {
				return domain.PathInfo{}, err
			}
			return domain.PathInfo{
				Namespace: joinWithout(rest, idx),
				Name:      name,
				Extension: ext,
				Preset:    segment,
				Modifiers: preset.Modifiers,
			}, nil
		}

		mods, err := s.codec.Decode(segment)
		if err == nil {
			return domain.PathInfo{
				Namespace: joinWithout(rest, idx),
				Name:      name,
				Extension: ext,
				Modifiers: mods,
			}, nil
		}
		if decodeErr == nil {
			decodeErr = err
		}
	}

	return domain.PathInfo{}, decodeErr
}

// produce serves from the cache tier, regenerating from the source on
// a miss. A missing source falls back to the configured no-image
// asset once, preserving the requested modifiers and extension.
func (s *ImageServer) produce(ctx context.Context, pi domain.PathInfo, allowFallback bool) (*domain.Response, error) {
	exists, err := s.persister.Exists(ctx, pi)
	if err != nil {
		return nil, err
	}

	if exists {
		data, err := s.persister.ReadVariant(ctx, pi)
		if err == nil {
			return s.respond(data, s.types.MimeType(pi.Extension)), nil
		}
		if !errors.Is(err, domain.ErrSourceNotFound) {
			return nil, err
		}
		// The entry vanished between the check and the read, most
		// likely to a concurrent purge. Regenerate below.
	}

	source, err := s.persister.ReadSource(ctx, pi)
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotFound) && allowFallback && s.noImage != nil {
			fallback, ferr := s.noImage.ResolveNoImage(pi.SourcePath())
			if ferr != nil {
				return nil, err
			}
			fallback.Modifiers = pi.Modifiers
			fallback.Preset = pi.Preset
			fallback.Extension = pi.Extension
			log.Debug().
				Str("requested", pi.SourcePath()).
				Str("fallback", fallback.SourcePath()).
				Msg("source missing, using no-image fallback")
			return s.produce(ctx, fallback, false)
		}
		return nil, err
	}

	values, err := s.registry.ParseValues(pi.Modifiers)
	if err != nil {
		return nil, err
	}
	if err := RunValidators(s.validators, values); err != nil {
		return nil, err
	}

	res := &domain.Resource{Path: pi, Data: source}
	if _, err := s.persister.Save(ctx, res); err != nil {
		return nil, err
	}

	mime := res.MimeType
	if mime == "" {
		mime = s.types.MimeType(pi.Extension)
	}
	return s.respond(res.Data, mime), nil
}

func (s *ImageServer) respond(data []byte, mime string) *domain.Response {
	if mime == "" {
		mime = http.DetectContentType(data)
	}

	maxAge := s.cfg.CacheMaxAge
	expires := time.Now().
		Add(time.Duration(maxAge) * time.Second).
		UTC().
		Format(http.TimeFormat)

	return &domain.Response{
		Body:          data,
		ContentType:   mime,
		ContentLength: len(data),
		CacheControl:  fmt.Sprintf("public, max-age=%d", maxAge),
		Expires:       expires,
	}
}

func joinWithout(segments []string, skip int) string {
	parts := make([]string, 0, len(segments)-1)
	for i, s := range segments {
		if i == skip {
			continue
		}
		parts = append(parts, s)
	}
	return gopath.Join(parts...)
}
