package rpcauthority

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/voxelsync/voxelsync/chunk"
)

// Server exposes an Authority over HTTP for non-authoritative cores to
// consume via Client.
type Server struct {
	authority Authority
	log       *slog.Logger
}

// NewServer returns an http.Handler serving authority under /api/v1.
func NewServer(authority Authority, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{authority: authority, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Route("/api/v1/worlds", func(r chi.Router) {
		r.Get("/", s.listWorlds)
		r.Route("/{worldID}", func(r chi.Router) {
			r.Get("/info", s.worldInfo)
			r.Get("/chunks/{x}/{y}/{z}", s.getChunk)
			r.Post("/pick-block", s.pickBlock)
		})
	})
	return r
}

func (s *Server) listWorlds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, worldsResponse{WorldIDs: s.authority.AvailableWorldIDs()})
}

func (s *Server) worldInfo(w http.ResponseWriter, r *http.Request) {
	worldID, ok := parseWorldID(w, r)
	if !ok {
		return
	}
	info, err := s.authority.WorldInfo(worldID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) getChunk(w http.ResponseWriter, r *http.Request) {
	worldID, ok := parseWorldID(w, r)
	if !ok {
		return
	}
	pos, ok := s.parseChunkPos(w, r)
	if !ok {
		return
	}
	blob, err := s.authority.GetChunk(worldID, pos)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, chunkResponse{Blob: blobToWire(blob)})
}

func (s *Server) pickBlock(w http.ResponseWriter, r *http.Request) {
	worldID, ok := parseWorldID(w, r)
	if !ok {
		return
	}
	var req pickBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	bp := chunk.BlockPos{X: req.X, Y: req.Y, Z: req.Z}
	if err := s.authority.PickBlock(worldID, bp); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) parseChunkPos(w http.ResponseWriter, r *http.Request) (chunk.Pos, bool) {
	x, errX := strconv.ParseInt(chi.URLParam(r, "x"), 10, 32)
	y, errY := strconv.ParseInt(chi.URLParam(r, "y"), 10, 32)
	z, errZ := strconv.ParseInt(chi.URLParam(r, "z"), 10, 32)
	if errX != nil || errY != nil || errZ != nil {
		s.writeError(w, http.StatusBadRequest, errInvalidChunkPos)
		return chunk.Pos{}, false
	}
	return chunk.Pos{X: int32(x), Y: int32(y), Z: int32(z)}, true
}

func parseWorldID(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "worldID"), 10, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid world id"})
		return 0, false
	}
	return uint32(id), true
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.Error("rpcauthority: request failed", "status", status, "err", err)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

var errInvalidChunkPos = chunkPosError("invalid chunk coordinates")

type chunkPosError string

func (e chunkPosError) Error() string { return string(e) }
