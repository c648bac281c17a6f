package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nexlearn/campus-api/internal/middleware"
	"github.com/nexlearn/campus-api/internal/models"
)

// Handlers bundles every route handler for registration.
type Handlers struct {
	Imports    *ImportHandler
	Fees       *FeeHandler
	Students   *StudentHandler
	Teachers   *TeacherHandler
	AdminStaff *StaffHandler
	Support    *StaffHandler
	Notices    *NoticeHandler
	Meetings   *MeetingHandler
	Attendance *AttendanceHandler
	Dashboard  *DashboardHandler

	// Ownership resolvers back the self-access grants on profile routes.
	StudentOwners middleware.OwnerResolver
	TeacherOwners middleware.OwnerResolver
}

// RegisterRoutes mounts the API under the given group. Every route requires a
// valid token; write operations are restricted to management roles.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, jwtSecret string) {
	api.Use(middleware.JWT(jwtSecret))

	manage := middleware.RequireRoles(models.RoleAdmin, models.RolePrincipal)
	staffRead := middleware.RequireRoles(models.RoleAdmin, models.RolePrincipal, models.RoleAdminStaff)

	imports := api.Group("/imports", manage)
	{
		imports.POST("/students", h.Imports.Students)
		imports.POST("/teachers", h.Imports.Teachers)
		imports.POST("/admin-staff", h.Imports.AdminStaff)
		imports.POST("/support-staff", h.Imports.SupportStaff)
		imports.GET("/history", h.Imports.History)
	}

	fees := api.Group("/fees")
	{
		fees.GET("", staffRead, h.Fees.List)
		fees.GET("/:id", staffRead, h.Fees.Get)
		fees.GET("/:id/receipt", staffRead, h.Fees.Receipt)
		fees.GET("/arrears/:studentId", staffRead, h.Fees.Arrears)
		fees.POST("", manage, h.Fees.Create)
		fees.PUT("/:id", manage, h.Fees.Update)
		fees.DELETE("/:id", manage, h.Fees.Delete)
		fees.POST("/generate", manage, h.Fees.Generate)
		fees.POST("/cleanup-orphans", manage, h.Fees.CleanupOrphans)
	}

	students := api.Group("/students")
	{
		students.GET("", staffRead, h.Students.List)
		students.GET("/:id", middleware.SelfOrRoles(h.StudentOwners, models.RoleAdmin, models.RolePrincipal, models.RoleAdminStaff, models.RoleTeacher), h.Students.Get)
		students.GET("/:id/fees", middleware.SelfOrRoles(h.StudentOwners, models.RoleAdmin, models.RolePrincipal, models.RoleAdminStaff), h.Fees.StudentFees)
		students.GET("/:id/arrears", middleware.SelfOrRoles(h.StudentOwners, models.RoleAdmin, models.RolePrincipal, models.RoleAdminStaff), h.Fees.StudentArrears)
		students.POST("", manage, h.Students.Create)
		students.PUT("/:id", manage, h.Students.Update)
		students.DELETE("/:id", manage, h.Students.Delete)
	}

	teachers := api.Group("/teachers")
	{
		teachers.GET("", staffRead, h.Teachers.List)
		teachers.GET("/:id", middleware.SelfOrRoles(h.TeacherOwners, models.RoleAdmin, models.RolePrincipal, models.RoleAdminStaff), h.Teachers.Get)
		teachers.POST("", manage, h.Teachers.Create)
		teachers.PUT("/:id", manage, h.Teachers.Update)
		teachers.DELETE("/:id", manage, h.Teachers.Delete)
	}

	adminStaff := api.Group("/admin-staff", manage)
	{
		adminStaff.GET("", h.AdminStaff.List)
		adminStaff.GET("/:id", h.AdminStaff.Get)
		adminStaff.POST("", h.AdminStaff.Create)
		adminStaff.PUT("/:id", h.AdminStaff.Update)
		adminStaff.DELETE("/:id", h.AdminStaff.Delete)
	}

	supportStaff := api.Group("/support-staff", manage)
	{
		supportStaff.GET("", h.Support.List)
		supportStaff.GET("/:id", h.Support.Get)
		supportStaff.POST("", h.Support.Create)
		supportStaff.PUT("/:id", h.Support.Update)
		supportStaff.DELETE("/:id", h.Support.Delete)
	}

	notices := api.Group("/notices")
	{
		notices.GET("", h.Notices.List)
		notices.GET("/:id", h.Notices.Get)
		notices.POST("", manage, h.Notices.Create)
		notices.PUT("/:id", manage, h.Notices.Update)
		notices.DELETE("/:id", manage, h.Notices.Delete)
	}

	meetings := api.Group("/meetings")
	{
		meetings.GET("", staffRead, h.Meetings.List)
		meetings.GET("/:id", staffRead, h.Meetings.Get)
		meetings.POST("", manage, h.Meetings.Create)
		meetings.PUT("/:id", manage, h.Meetings.Update)
		meetings.DELETE("/:id", manage, h.Meetings.Delete)
	}

	attendance := api.Group("/attendance")
	{
		attendance.GET("", middleware.RequireRoles(models.RoleAdmin, models.RolePrincipal, models.RoleTeacher, models.RoleAdminStaff), h.Attendance.List)
		attendance.POST("", middleware.RequireRoles(models.RoleAdmin, models.RolePrincipal, models.RoleTeacher), h.Attendance.Mark)
	}

	if h.Dashboard != nil {
		api.GET("/dashboard/summary", manage, h.Dashboard.Summary)
	}
}
