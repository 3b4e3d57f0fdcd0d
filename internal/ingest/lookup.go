package ingest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"maprandovideos.io/videos/internal/auth"
	"maprandovideos.io/videos/internal/catalog"
)

func (s *Server) handleGetVideo(c echo.Context) error {
	videoID, err := strconv.ParseInt(c.QueryParam("video_id"), 10, 32)
	if err != nil {
		return c.String(http.StatusBadRequest, "missing or malformed video_id")
	}

	video, err := s.queries.GetVideo(c.Request().Context(), int32(videoID))
	if err != nil {
		return c.String(http.StatusNotFound, "video not found")
	}
	return c.JSON(http.StatusOK, s.videoResponse(video))
}

// handleListVideos parses the filterable query parameters documented in
// §4.2 into a catalog.ListFilter and runs the listing query.
func (s *Server) handleListVideos(c echo.Context) error {
	var f catalog.ListFilter

	if v := c.QueryParam("video_id"); v != "" {
		f.VideoID = parseQueryInt32(v)
	}
	if v := c.QueryParam("room_id"); v != "" {
		f.RoomID = parseQueryInt32(v)
	}
	if v := c.QueryParam("from_node_id"); v != "" {
		f.FromNodeID = parseQueryInt32(v)
	}
	if v := c.QueryParam("to_node_id"); v != "" {
		f.ToNodeID = parseQueryInt32(v)
	}
	if v := c.QueryParam("strat_id"); v != "" {
		f.StratID = parseQueryInt32(v)
	}
	if v := c.QueryParam("created_account_id"); v != "" {
		f.CreatedAccountID = parseQueryInt32(v)
	}
	if v := c.QueryParam("status"); v != "" {
		for _, s := range strings.Split(v, ",") {
			f.Statuses = append(f.Statuses, catalog.Status(strings.TrimSpace(s)))
		}
	}
	if v := c.QueryParam("sort_by"); v == string(catalog.SortByUpdated) {
		f.SortBy = catalog.SortByUpdated
	}
	f.Descending = c.QueryParam("descending") == "true"
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = int32(n)
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Offset = int32(n)
		}
	}

	videos, err := s.queries.ListVideos(c.Request().Context(), f)
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to list videos")
	}

	out := make([]videoResponse, len(videos))
	for i := range videos {
		out[i] = s.videoResponse(&videos[i])
	}
	return c.JSON(http.StatusOK, out)
}

func parseQueryInt32(v string) *int32 {
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return nil
	}
	n32 := int32(n)
	return &n32
}

func (s *Server) handleListUsers(c echo.Context) error {
	accounts, err := s.queries.ListAccounts(c.Request().Context())
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to list users")
	}
	out := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = newAccountResponse(a)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleRoomsByArea(c echo.Context) error {
	rooms, err := s.queries.ListRoomsByArea(c.Request().Context())
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to list rooms")
	}
	out := make([]roomResponse, len(rooms))
	for i, r := range rooms {
		out[i] = roomResponse{RoomID: r.RoomID, AreaID: r.AreaID, AreaName: r.AreaName, Name: r.Name}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleNodes(c echo.Context) error {
	roomID, err := strconv.ParseInt(c.QueryParam("room_id"), 10, 32)
	if err != nil {
		return c.String(http.StatusBadRequest, "missing or malformed room_id")
	}
	nodes, err := s.queries.ListNodes(c.Request().Context(), int32(roomID))
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to list nodes")
	}
	out := make([]nodeResponse, len(nodes))
	for i, n := range nodes {
		out[i] = nodeResponse{RoomID: n.RoomID, NodeID: n.NodeID, Name: n.Name}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleStrats(c echo.Context) error {
	roomID, err1 := strconv.ParseInt(c.QueryParam("room_id"), 10, 32)
	fromNode, err2 := strconv.ParseInt(c.QueryParam("from_node_id"), 10, 32)
	toNode, err3 := strconv.ParseInt(c.QueryParam("to_node_id"), 10, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		return c.String(http.StatusBadRequest, "missing or malformed room_id/from_node_id/to_node_id")
	}

	strats, err := s.queries.ListStrats(c.Request().Context(), int32(roomID), int32(fromNode), int32(toNode))
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to list strats")
	}
	out := make([]stratResponse, len(strats))
	for i, st := range strats {
		out[i] = stratResponse{RoomID: st.RoomID, StratID: st.StratID, FromNodeID: st.FromNodeID, ToNodeID: st.ToNodeID, Name: st.Name}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleListTech(c echo.Context) error {
	techs, err := s.queries.ListTechs(c.Request().Context())
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to list tech")
	}
	out := make([]techResponse, len(techs))
	for i, t := range techs {
		out[i] = techResponse{ID: t.ID, Name: t.Name}
	}
	return c.JSON(http.StatusOK, out)
}

// handleUpsertTech records an Editor's difficulty/video assignment for a
// tech, per §6's Editor-only POST /tech.
func (s *Server) handleUpsertTech(c echo.Context) error {
	account := accountFromContext(c)
	if !auth.IsEditor(account) {
		return c.String(http.StatusForbidden, "Not authorized to assign tech difficulty")
	}

	var body techAssignmentBody
	if err := c.Bind(&body); err != nil {
		return c.String(http.StatusBadRequest, "malformed tech assignment body")
	}

	if err := s.queries.UpsertTechAssignment(c.Request().Context(), catalog.TechAssignment{
		TechID: body.TechID, VideoID: body.VideoID, Difficulty: body.Difficulty,
	}); err != nil {
		return c.String(http.StatusInternalServerError, "failed to assign tech difficulty")
	}
	return c.NoContent(http.StatusOK)
}
