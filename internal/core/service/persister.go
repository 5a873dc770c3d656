package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"

	"imgforge/internal/core/domain"
	"imgforge/internal/core/domain/modifier"
	"imgforge/internal/core/port"

	"github.com/rs/zerolog/log"
)

// DeleteOptions controls Delete for source-tier paths. CacheOnly keeps
// the source entry and only purges its derived variants.
type DeleteOptions struct {
	CacheOnly bool
}

// Persister owns the dual-tier image store: originals in the source
// tier, derived variants in the cache tier keyed by
// namespace/<encoded-modifier-segment>/name.ext.
type Persister struct {
	source   port.Filesystem
	cache    port.Filesystem
	codec    *modifier.Codec
	registry *modifier.Registry
	pipeline *Pipeline
}

func NewPersister(source, cache port.Filesystem, codec *modifier.Codec,
	registry *modifier.Registry, pipeline *Pipeline) *Persister {
	return &Persister{source: source, cache: cache, codec: codec,
		registry: registry, pipeline: pipeline}
}

// Exists checks the tier implied by the presence of modifiers.
func (p *Persister) Exists(ctx context.Context, pi domain.PathInfo) (bool, error) {
	fs, storagePath, err := p.locate(pi)
	if err != nil {
		return false, err
	}
	ok, err := fs.Exists(ctx, storagePath)
	if err != nil {
		return false, domain.WrapRequestError(domain.ErrFilesystem,
			fmt.Sprintf("existence check for %q failed", storagePath), err)
	}
	return ok, nil
}

// Save writes a resource to its tier and returns the storage path.
// Variants run through the transform pipeline first. Source writes that
// replace an existing entry purge every previously derived variant for
// that name; purge failures are logged and do not fail the save.
func (p *Persister) Save(ctx context.Context, res *domain.Resource) (string, error) {
	if res.Path.HasModifiers() {
		return p.saveVariant(ctx, res)
	}
	return p.saveSource(ctx, res)
}

func (p *Persister) saveVariant(ctx context.Context, res *domain.Resource) (string, error) {
	values, err := p.registry.ParseValues(res.Path.Modifiers)
	if err != nil {
		return "", err
	}

	if !res.Modified {
		if err := p.pipeline.Transform(ctx, res, values); err != nil {
			return "", err
		}
	}

	segment, err := p.codec.Encode(values)
	if err != nil {
		return "", err
	}

	cachePath := res.Path.CachePath(segment)
	if err := p.cache.Write(ctx, cachePath, res.Data); err != nil {
		return "", domain.WrapRequestError(domain.ErrFilesystem,
			fmt.Sprintf("writing variant %q failed", cachePath), err)
	}
	return cachePath, nil
}

func (p *Persister) saveSource(ctx context.Context, res *domain.Resource) (string, error) {
	sourcePath := res.Path.SourcePath()

	existed, err := p.source.Exists(ctx, sourcePath)
	if err != nil {
		return "", domain.WrapRequestError(domain.ErrFilesystem,
			fmt.Sprintf("existence check for %q failed", sourcePath), err)
	}

	if err := p.source.Write(ctx, sourcePath, res.Data); err != nil {
		return "", domain.WrapRequestError(domain.ErrFilesystem,
			fmt.Sprintf("writing source %q failed", sourcePath), err)
	}

	// Write first, purge second: a derivation racing the purge must
	// not survive with bytes of the replaced source.
	if existed {
		p.purgeVariants(ctx, res.Path)
	}

	return sourcePath, nil
}

// Delete removes a single cache entry when the path has modifiers.
// For source paths it purges all derived variants and, unless
// CacheOnly is set, the source entry itself.
func (p *Persister) Delete(ctx context.Context, pi domain.PathInfo, opts DeleteOptions) error {
	if pi.HasModifiers() {
		_, cachePath, err := p.locate(pi)
		if err != nil {
			return err
		}
		if err := p.cache.Delete(ctx, cachePath); err != nil {
			return domain.WrapRequestError(domain.ErrFilesystem,
				fmt.Sprintf("deleting variant %q failed", cachePath), err)
		}
		return nil
	}

	p.purgeVariants(ctx, pi)

	if opts.CacheOnly {
		return nil
	}

	sourcePath := pi.SourcePath()
	if err := p.source.Delete(ctx, sourcePath); err != nil {
		return domain.WrapRequestError(domain.ErrFilesystem,
			fmt.Sprintf("deleting source %q failed", sourcePath), err)
	}
	return nil
}

// ReadSource loads the source bytes for a path. A missing source is a
// not-found error so the caller can try a fallback.
func (p *Persister) ReadSource(ctx context.Context, pi domain.PathInfo) ([]byte, error) {
	return p.read(ctx, p.source, pi.SourcePath())
}

// ReadVariant loads the cached derived bytes for a variant path.
func (p *Persister) ReadVariant(ctx context.Context, pi domain.PathInfo) ([]byte, error) {
	_, cachePath, err := p.locate(pi)
	if err != nil {
		return nil, err
	}
	return p.read(ctx, p.cache, cachePath)
}

func (p *Persister) read(ctx context.Context, fs port.Filesystem, storagePath string) ([]byte, error) {
	ok, err := fs.Exists(ctx, storagePath)
	if err != nil {
		return nil, domain.WrapRequestError(domain.ErrFilesystem,
			fmt.Sprintf("existence check for %q failed", storagePath), err)
	}
	if !ok {
		return nil, domain.NewRequestError(domain.ErrSourceNotFound,
			fmt.Sprintf("no image at %q", storagePath))
	}

	r, err := fs.ReadStream(ctx, storagePath)
	if err != nil {
		return nil, domain.WrapRequestError(domain.ErrFilesystem,
			fmt.Sprintf("opening %q failed", storagePath), err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.WrapRequestError(domain.ErrFilesystem,
			fmt.Sprintf("reading %q failed", storagePath), err)
	}
	return data, nil
}

// purgeVariants enumerates the cache tier under the namespace and
// removes every entry derived from the given name, whatever its
// modifier segment or extension. Best effort: failures are logged so a
// source update still succeeds.
func (p *Persister) purgeVariants(ctx context.Context, pi domain.PathInfo) {
	re := variantPattern(pi.Name)

	entries, err := p.cache.ListContents(ctx, pi.Namespace, true)
	if err != nil {
		log.Warn().Err(err).
			Str("namespace", pi.Namespace).
			Str("name", pi.Name).
			Msg("listing cache tier for purge failed")
		return
	}

	for _, entry := range entries {
		if entry.IsDir || !re.MatchString(path.Base(entry.Path)) {
			continue
		}
		if err := p.cache.Delete(ctx, entry.Path); err != nil {
			log.Warn().Err(err).Str("path", entry.Path).Msg("purging cached variant failed")
			continue
		}
		log.Debug().Str("path", entry.Path).Msg("purged cached variant")
	}
}

// variantPattern matches cached filenames for a source name, with or
// without an extension.
func variantPattern(name string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(name) + `(\.[[:alnum:]]+)?$`)
}

func (p *Persister) locate(pi domain.PathInfo) (port.Filesystem, string, error) {
	if !pi.HasModifiers() {
		return p.source, pi.SourcePath(), nil
	}

	segment, err := p.codec.EncodeRaw(pi.Modifiers)
	if err != nil {
		return nil, "", err
	}
	return p.cache, pi.CachePath(segment), nil
}
